package registration

import (
	"fmt"
	"strings"

	"github.com/vango-dev/regform/pkg/features/form"
)

const (
	buttonLabel     = "Register"
	submittingLabel = "Submitting..."
)

// Render draws the registration card as plain text: the heading, each
// field with its value and message, and the submit button.
//
//	== User Registration ==
//	Please fill out the form below to register.
//
//	First Name: "Al"
//	  ! First name must be at least 3 characters
//	Last Name:  ""
//	Email:      ""
//	  ~ Validating...
//
//	[ Register ] (disabled)
func Render(s form.State[Values]) string {
	var b strings.Builder

	fmt.Fprintf(&b, "== %s ==\n", Title)
	b.WriteString(Description)
	b.WriteString("\n\n")

	width := 0
	for _, f := range s.Fields {
		width = max(width, len(f.Label))
	}

	for _, f := range s.Fields {
		fmt.Fprintf(&b, "%-*s %q\n", width+1, f.Label+":", f.Value)
		switch kind, msg := f.Message(); kind {
		case form.MessageValidating:
			fmt.Fprintf(&b, "  ~ %s\n", msg)
		case form.MessageError:
			fmt.Fprintf(&b, "  ! %s\n", msg)
		}
	}

	b.WriteString("\n")
	b.WriteString(button(s))
	b.WriteString("\n")
	return b.String()
}

func button(s form.State[Values]) string {
	label := buttonLabel
	if s.IsSubmitting {
		label = submittingLabel
	}
	out := "[ " + label + " ]"
	if !s.CanSubmit {
		out += " (disabled)"
	}
	return out
}
