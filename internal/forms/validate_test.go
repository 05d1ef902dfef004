package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushive/backend/internal/models"
)

func sampleFields() []models.FormField {
	return []models.FormField{
		{ID: "name", Label: "Full name", Type: "text", Required: true},
		{ID: "diet", Label: "Dietary preference", Type: "choice", Options: []string{"none", "vegetarian", "vegan"}},
		{ID: "guests", Label: "Number of guests", Type: "number"},
		{ID: "notes", Label: "Notes", Type: "textarea"},
	}
}

func TestValidateFields(t *testing.T) {
	require.NoError(t, ValidateFields(sampleFields()))

	assert.Error(t, ValidateFields(nil), "empty config")
	assert.Error(t, ValidateFields([]models.FormField{
		{ID: "a", Type: "text"}, {ID: "a", Type: "text"},
	}), "duplicate ids")
	assert.Error(t, ValidateFields([]models.FormField{
		{ID: "a", Type: "date"},
	}), "unknown type")
	assert.Error(t, ValidateFields([]models.FormField{
		{ID: "a", Type: "choice"},
	}), "choice without options")
	assert.Error(t, ValidateFields([]models.FormField{
		{ID: "a", Type: "text", Options: []string{"x"}},
	}), "options on non-choice field")
}

func TestValidateAnswersAccepts(t *testing.T) {
	answers := map[string]interface{}{
		"name":   "Ada Lovelace",
		"diet":   "vegan",
		"guests": float64(2),
	}
	assert.NoError(t, ValidateAnswers(sampleFields(), answers))
}

func TestValidateAnswersRequiredMissing(t *testing.T) {
	err := ValidateAnswers(sampleFields(), map[string]interface{}{"diet": "vegan"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name" is required`)
}

func TestValidateAnswersRequiredBlank(t *testing.T) {
	err := ValidateAnswers(sampleFields(), map[string]interface{}{"name": "   "})
	assert.Error(t, err)
}

func TestValidateAnswersChoiceMembership(t *testing.T) {
	err := ValidateAnswers(sampleFields(), map[string]interface{}{
		"name": "Ada", "diet": "carnivore",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestValidateAnswersUnknownField(t *testing.T) {
	err := ValidateAnswers(sampleFields(), map[string]interface{}{
		"name": "Ada", "tshirt": "L",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "tshirt"`)
}

func TestValidateAnswersTypeChecks(t *testing.T) {
	err := ValidateAnswers(sampleFields(), map[string]interface{}{
		"name": "Ada", "guests": "two",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a number")

	err = ValidateAnswers(sampleFields(), map[string]interface{}{
		"name": 42,
	})
	assert.Error(t, err)
}

func TestValidateAnswersOptionalOmitted(t *testing.T) {
	assert.NoError(t, ValidateAnswers(sampleFields(), map[string]interface{}{"name": "Ada"}))
}
