package form

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validator is a synchronous rule for a single field value.
type Validator interface {
	// Validate returns nil if value is valid, or an error whose message is
	// shown to the user.
	Validate(value string) error
}

// ValidatorFunc is a function that implements Validator.
type ValidatorFunc func(value string) error

func (f ValidatorFunc) Validate(value string) error {
	return f(value)
}

// AsyncValidator is a rule that needs to wait on something (a lookup, a
// remote check). It runs off the form's loop and must honour ctx.
type AsyncValidator interface {
	ValidateAsync(ctx context.Context, value string) error
}

// AsyncValidatorFunc is a function that implements AsyncValidator.
type AsyncValidatorFunc func(ctx context.Context, value string) error

func (f AsyncValidatorFunc) ValidateAsync(ctx context.Context, value string) error {
	return f(ctx, value)
}

// ----------------------------------------------------------------------------
// String Validators
// ----------------------------------------------------------------------------

// Required validates that the value is not blank.
func Required(msg string) Validator {
	if msg == "" {
		msg = "This field is required"
	}
	return ValidatorFunc(func(value string) error {
		if strings.TrimSpace(value) == "" {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MinLength validates that a string has at least n characters.
// The empty string is too short for any n > 0. Characters are Unicode code
// points, so an emoji outside the Basic Multilingual Plane counts as one.
func MinLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %d characters", n)
	}
	return ValidatorFunc(func(value string) error {
		if utf8.RuneCountInString(value) < n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MaxLength validates that a string has at most n characters, counted as
// code points like MinLength.
func MaxLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %d characters", n)
	}
	return ValidatorFunc(func(value string) error {
		if utf8.RuneCountInString(value) > n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Pattern validates that a string matches the given regular expression.
// It panics if pattern does not compile.
func Pattern(pattern string, msg string) Validator {
	re := regexp.MustCompile(pattern)
	if msg == "" {
		msg = "Invalid format"
	}
	return ValidatorFunc(func(value string) error {
		if !re.MatchString(value) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// emailPattern requires a local part, an @, and a dotted domain with a TLD
// of at least two letters.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email validates that the value looks like an email address.
func Email(msg string) Validator {
	if msg == "" {
		msg = "Invalid email address"
	}
	return ValidatorFunc(func(value string) error {
		if !emailPattern.MatchString(value) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Excludes validates that the value does not contain substr.
func Excludes(substr string, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must not contain %q", substr)
	}
	return ValidatorFunc(func(value string) error {
		if strings.Contains(value, substr) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Optional skips v for blank values.
func Optional(v Validator) Validator {
	return ValidatorFunc(func(value string) error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return v.Validate(value)
	})
}

// Custom creates a validator from a custom function.
func Custom(fn func(value string) error) Validator {
	return ValidatorFunc(fn)
}

// ----------------------------------------------------------------------------
// Running rules
// ----------------------------------------------------------------------------

// runValidators applies every validator in order and returns the messages
// of those that failed. A nil result means the value is valid.
func runValidators(validators []Validator, value string) []string {
	var messages []string
	for _, v := range validators {
		if err := v.Validate(value); err != nil {
			messages = append(messages, err.Error())
		}
	}
	return messages
}

// runAsyncValidators applies async validators sequentially, stopping early
// if ctx is done.
func runAsyncValidators(ctx context.Context, validators []AsyncValidator, value string) ([]string, error) {
	var messages []string
	for _, v := range validators {
		if err := ctx.Err(); err != nil {
			return messages, err
		}
		err := v.ValidateAsync(ctx, value)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return messages, ctxErr
		}
		messages = append(messages, err.Error())
	}
	return messages, nil
}

// ----------------------------------------------------------------------------
// Struct tags
// ----------------------------------------------------------------------------

// validatorFromTag creates a validator from a tag name and value.
func validatorFromTag(name, value string) Validator {
	switch name {
	case "required":
		return Required("")
	case "min", "minlen", "minlength":
		if n, err := strconv.Atoi(value); err == nil {
			return MinLength(n, "")
		}
		return nil
	case "max", "maxlen", "maxlength":
		if n, err := strconv.Atoi(value); err == nil {
			return MaxLength(n, "")
		}
		return nil
	case "email":
		return Email("")
	case "excludes":
		if value == "" {
			return nil
		}
		return Excludes(value, "")
	case "pattern", "regex":
		if _, err := regexp.Compile(value); err != nil {
			return nil
		}
		return Pattern(value, "")
	default:
		return nil
	}
}

// parseValidateTag parses a validate tag such as "required,min=3" into
// validators. Unknown or malformed rules are ignored.
func parseValidateTag(tag string) []Validator {
	if tag == "" {
		return nil
	}

	rules := strings.Split(tag, ",")
	validators := make([]Validator, 0, len(rules))

	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}

		name, value, _ := strings.Cut(rule, "=")
		if v := validatorFromTag(name, value); v != nil {
			validators = append(validators, v)
		}
	}

	return validators
}
