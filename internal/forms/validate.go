package forms

import (
	"fmt"
	"strings"

	"github.com/campushive/backend/internal/models"
)

var fieldTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"number":   true,
	"textarea": true,
	"choice":   true,
}

// ValidateFields checks a form's field configuration: unique non-empty ids,
// known types, and options on choice fields.
func ValidateFields(fields []models.FormField) error {
	if len(fields) == 0 {
		return fmt.Errorf("form needs at least one field")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.ID == "" {
			return fmt.Errorf("field %q has no id", f.Label)
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
		if !fieldTypes[f.Type] {
			return fmt.Errorf("field %q has unknown type %q", f.ID, f.Type)
		}
		if f.Type == "choice" && len(f.Options) == 0 {
			return fmt.Errorf("choice field %q has no options", f.ID)
		}
		if f.Type != "choice" && len(f.Options) > 0 {
			return fmt.Errorf("field %q is not a choice field but has options", f.ID)
		}
	}
	return nil
}

// ValidateAnswers checks a submission against the form's field configuration.
// Every required field must carry a non-empty value, choice answers must be
// one of the configured options, and unknown field ids are rejected.
func ValidateAnswers(fields []models.FormField, answers map[string]interface{}) error {
	byID := make(map[string]models.FormField, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	for id := range answers {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("unknown field %q", id)
		}
	}
	for _, f := range fields {
		value, present := answers[f.ID]
		if !present || isEmpty(value) {
			if f.Required {
				return fmt.Errorf("field %q is required", f.ID)
			}
			continue
		}
		switch f.Type {
		case "number":
			// JSON numbers decode as float64.
			if _, ok := value.(float64); !ok {
				return fmt.Errorf("field %q must be a number", f.ID)
			}
		case "choice":
			s, ok := value.(string)
			if !ok || !contains(f.Options, s) {
				return fmt.Errorf("field %q must be one of: %s", f.ID, strings.Join(f.Options, ", "))
			}
		default:
			if _, ok := value.(string); !ok {
				return fmt.Errorf("field %q must be a string", f.ID)
			}
		}
	}
	return nil
}

func isEmpty(v interface{}) bool {
	s, ok := v.(string)
	return v == nil || (ok && strings.TrimSpace(s) == "")
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
