package scenario

import (
	stderrors "errors"

	"github.com/vango-dev/regform/internal/errors"
	"github.com/vango-dev/regform/pkg/features/form"
)

// formCode returns the registered code for an error from the form package,
// or "" for any other error.
func formCode(err error) string {
	var subErr *form.SubmissionError
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, form.ErrUnknownField):
		return "E100"
	case stderrors.Is(err, form.ErrClosed):
		return "E101"
	case stderrors.Is(err, form.ErrNoFields):
		return "E102"
	case stderrors.As(err, &subErr):
		return "E103"
	}
	return ""
}

// FormError returns errors from the form package as coded errors. Any
// other error, including nil, is returned unchanged.
func FormError(err error) error {
	code := formCode(err)
	if code == "" {
		return err
	}
	return errors.New(code).WithDetail(err.Error()).Wrap(err)
}
