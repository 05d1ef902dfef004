package emails

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"

	"github.com/campushive/backend/internal/models"
)

// TemplateData is everything the registration email templates can reference.
type TemplateData struct {
	UserName     string
	EventTitle   string
	EventStart   string
	Location     string
	CheckinToken string
	Comment      string
}

type emailTemplate struct {
	subject string
	html    *template.Template
	text    *texttemplate.Template
}

var registrationTemplates = map[string]emailTemplate{
	models.EmailTypeRegistrationConfirmed: {
		subject: "You're registered: %s",
		html: template.Must(template.New("confirmed").Parse(
			`<p>Hi {{.UserName}},</p>
<p>Your spot for <b>{{.EventTitle}}</b> is confirmed.</p>
<p>When: {{.EventStart}}<br>Where: {{.Location}}</p>
<p>Your check-in code: <b>{{.CheckinToken}}</b></p>`)),
		text: texttemplate.Must(texttemplate.New("confirmed").Parse(
			`Hi {{.UserName}},

Your spot for {{.EventTitle}} is confirmed.

When: {{.EventStart}}
Where: {{.Location}}

Your check-in code: {{.CheckinToken}}
`)),
	},
	models.EmailTypeRegistrationPending: {
		subject: "Registration received: %s",
		html: template.Must(template.New("pending").Parse(
			`<p>Hi {{.UserName}},</p>
<p>We received your registration for <b>{{.EventTitle}}</b>. The organizers will review it and you will hear back soon.</p>`)),
		text: texttemplate.Must(texttemplate.New("pending").Parse(
			`Hi {{.UserName}},

We received your registration for {{.EventTitle}}. The organizers will review it and you will hear back soon.
`)),
	},
	models.EmailTypeRegistrationApproved: {
		subject: "Registration approved: %s",
		html: template.Must(template.New("approved").Parse(
			`<p>Hi {{.UserName}},</p>
<p>Your registration for <b>{{.EventTitle}}</b> was approved.</p>
<p>When: {{.EventStart}}<br>Where: {{.Location}}</p>
<p>Your check-in code: <b>{{.CheckinToken}}</b></p>`)),
		text: texttemplate.Must(texttemplate.New("approved").Parse(
			`Hi {{.UserName}},

Your registration for {{.EventTitle}} was approved.

When: {{.EventStart}}
Where: {{.Location}}

Your check-in code: {{.CheckinToken}}
`)),
	},
	models.EmailTypeRegistrationRejected: {
		subject: "Registration update: %s",
		html: template.Must(template.New("rejected").Parse(
			`<p>Hi {{.UserName}},</p>
<p>Unfortunately your registration for <b>{{.EventTitle}}</b> was not approved.{{if .Comment}}</p><p>Note from the organizers: {{.Comment}}{{end}}</p>`)),
		text: texttemplate.Must(texttemplate.New("rejected").Parse(
			`Hi {{.UserName}},

Unfortunately your registration for {{.EventTitle}} was not approved.
{{if .Comment}}
Note from the organizers: {{.Comment}}
{{end}}`)),
	},
}

// Render produces subject, HTML body and text body for a registration email.
func Render(emailType string, data TemplateData) (subject, htmlBody, textBody string, err error) {
	tpl, ok := registrationTemplates[emailType]
	if !ok {
		return "", "", "", fmt.Errorf("no template for email type %q", emailType)
	}
	var hb, tb bytes.Buffer
	if err := tpl.html.Execute(&hb, data); err != nil {
		return "", "", "", err
	}
	if err := tpl.text.Execute(&tb, data); err != nil {
		return "", "", "", err
	}
	return fmt.Sprintf(tpl.subject, data.EventTitle), hb.String(), tb.String(), nil
}

func formatEventStart(t time.Time) string {
	return t.UTC().Format("Mon, 2 Jan 2006 15:04 MST")
}
