package template

import (
	"regexp"
	"strings"
)

// SectionRequirement defines one required section of a generated document.
type SectionRequirement struct {
	// Name is the human-readable section name.
	Name string
	// Pattern matches the section header or required structure.
	Pattern *regexp.Regexp
	// Description feeds the validation result when the section is missing.
	Description string
}

// Result is the outcome of validating one generated document.
type Result struct {
	Valid           bool     `yaml:"valid"`
	Document        string   `yaml:"document"`
	MissingSections []string `yaml:"missing_sections,omitempty"`
	Warnings        []string `yaml:"warnings,omitempty"`
}

// Validator checks generated documents against their required structure.
type Validator struct {
	// RequiredSections maps template names to section requirements.
	RequiredSections map[string][]SectionRequirement
}

// NewValidator creates a Validator with the default requirements for each
// artifact template.
func NewValidator() *Validator {
	return &Validator{
		RequiredSections: map[string][]SectionRequirement{
			"FEATURES.md": {
				{
					Name:        "Title",
					Pattern:     regexp.MustCompile(`(?m)^#\s+.+`),
					Description: "Document title (# heading)",
				},
				{
					Name:        "Section heading",
					Pattern:     regexp.MustCompile(`(?m)^##\s+.+`),
					Description: "At least one feature section (## heading)",
				},
			},
			"TEST-CASES.md": {
				{
					Name:        "Title",
					Pattern:     regexp.MustCompile(`(?m)^#\s+.+`),
					Description: "Document title (# heading)",
				},
				{
					Name:        "Section heading",
					Pattern:     regexp.MustCompile(`(?m)^##\s+.+`),
					Description: "At least one test-case section (## heading)",
				},
			},
			"DDD-STATUS.yml": {
				{
					Name:        "Passes list",
					Pattern:     regexp.MustCompile(`(?m)^passes:`),
					Description: "Top-level passes list",
				},
			},
			"EXEC-PLAN.yml": {
				{
					Name:        "Slug",
					Pattern:     regexp.MustCompile(`(?m)^slug:\s*\S+`),
					Description: "Plan slug",
				},
				{
					Name:        "Phases list",
					Pattern:     regexp.MustCompile(`(?m)^phases:`),
					Description: "Top-level phases list",
				},
			},
		},
	}
}

// Validate checks a rendered document against the requirements for its
// template name. Unknown names validate with a warning.
func (v *Validator) Validate(name string, content []byte) *Result {
	result := &Result{Valid: true, Document: name}

	requirements, ok := v.RequiredSections[name]
	if !ok {
		result.Warnings = append(result.Warnings, "no validation rules for "+name)
		return result
	}

	text := string(content)
	for _, req := range requirements {
		if !req.Pattern.MatchString(text) {
			result.Valid = false
			result.MissingSections = append(result.MissingSections, req.Name+": "+req.Description)
		}
	}

	// Leftover scaffolding in a final document means rendering was skipped.
	if strings.Contains(text, "<template>") || strings.Contains(text, "<example>") {
		result.Warnings = append(result.Warnings, "document still contains template scaffolding")
	}

	return result
}
