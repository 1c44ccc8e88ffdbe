package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Form Errors (E100-E199)
	// ============================================

	"E100": {
		Category:   CategoryForm,
		Message:    "Unknown form field",
		Suggestion: "Field names are case-sensitive; 'regform run --help' lists the registration form's fields",
	},
	"E101": {
		Category: CategoryForm,
		Message:  "Form is closed",
		Detail:   "The form was discarded before the event could be applied.",
	},
	"E102": {
		Category: CategoryForm,
		Message:  "Form has no bindable fields",
		Detail:   "Form values must be a struct with exported string fields.",
	},
	"E103": {
		Category: CategoryForm,
		Message:  "Submission failed",
		Detail:   "The submit action returned an error. The form stays editable and can be submitted again.",
	},

	// ============================================
	// Config Errors (E200-E299)
	// ============================================

	"E200": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that the file is valid JSON",
	},
	"E201": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Pass --config with an existing file or run without it to use defaults",
	},
	"E202": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E203": {
		Category:   CategoryConfig,
		Message:    "Invalid environment override",
		Suggestion: "Durations use Go syntax such as 500ms or 1s",
	},

	// ============================================
	// Scenario Errors (E300-E399)
	// ============================================

	"E300": {
		Category: CategoryScenario,
		Message:  "Scenario file not found",
	},
	"E301": {
		Category:   CategoryScenario,
		Message:    "Invalid scenario file",
		Suggestion: "A scenario is a YAML document with a name and a list of steps",
	},
	"E302": {
		Category:   CategoryScenario,
		Message:    "Invalid scenario step",
		Suggestion: "Each step has exactly one of: change, blur, submit, reset, wait, expect",
	},
	"E303": {
		Category: CategoryScenario,
		Message:  "Expectation failed",
	},
	"E304": {
		Category: CategoryScenario,
		Message:  "Scenario step rejected",
		Detail:   "The form refused the event.",
	},

	// ============================================
	// CLI Errors (E400-E499)
	// ============================================

	"E400": {
		Category:   CategoryCLI,
		Message:    "Invalid flag value",
		Suggestion: "--error-format accepts pretty, compact or json",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes in no particular order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
