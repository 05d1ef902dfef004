package emails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushive/backend/internal/models"
)

func TestRenderConfirmed(t *testing.T) {
	subject, htmlBody, textBody, err := Render(models.EmailTypeRegistrationConfirmed, TemplateData{
		UserName:     "Ada Lovelace",
		EventTitle:   "Intro to Databases",
		EventStart:   "Sat, 7 Mar 2026 18:00 UTC",
		Location:     "Main Hall",
		CheckinToken: "a1b2c3",
	})
	require.NoError(t, err)
	assert.Equal(t, "You're registered: Intro to Databases", subject)
	assert.Contains(t, htmlBody, "a1b2c3")
	assert.Contains(t, htmlBody, "Main Hall")
	assert.Contains(t, textBody, "a1b2c3")
}

func TestRenderRejectedComment(t *testing.T) {
	_, htmlBody, textBody, err := Render(models.EmailTypeRegistrationRejected, TemplateData{
		UserName:   "Ada",
		EventTitle: "Lab Tour",
		Comment:    "event is staff only",
	})
	require.NoError(t, err)
	assert.Contains(t, htmlBody, "event is staff only")
	assert.Contains(t, textBody, "event is staff only")

	_, htmlBody, _, err = Render(models.EmailTypeRegistrationRejected, TemplateData{
		UserName:   "Ada",
		EventTitle: "Lab Tour",
	})
	require.NoError(t, err)
	assert.NotContains(t, htmlBody, "Note from the organizers")
}

func TestRenderEscapesHTML(t *testing.T) {
	_, htmlBody, _, err := Render(models.EmailTypeRegistrationPending, TemplateData{
		UserName:   "<script>alert(1)</script>",
		EventTitle: "Safe Event",
	})
	require.NoError(t, err)
	assert.NotContains(t, htmlBody, "<script>")
}

func TestRenderUnknownType(t *testing.T) {
	_, _, _, err := Render("marketing_blast", TemplateData{})
	assert.Error(t, err)
}
