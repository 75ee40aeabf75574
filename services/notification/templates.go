package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"tourbooking/models"
)

var funcs = template.FuncMap{
	"money": func(cents int64, currency string) string {
		return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
	},
	"deref": func(b *bool) bool { return b != nil && *b },
}

var templates = map[models.NotificationKind]struct{ subject, body *template.Template }{
	models.NotifyConfirmation: {
		subject: template.Must(template.New("s").Parse(`Booking {{.Reference}} confirmed`)),
		body: template.Must(template.New("b").Funcs(funcs).Parse(`Hello {{.CustomerName}},

Your tour is confirmed.

Reference:    {{.Reference}}
Date:         {{.Date}}
Departure:    {{.SlotLabel}}
Participants: {{.Participants}}
Total:        {{money .TotalCents .Currency}}

See you there!
`)),
	},
	models.NotifyCancellation: {
		subject: template.Must(template.New("s").Parse(`Booking {{.Reference}} cancelled`)),
		body: template.Must(template.New("b").Funcs(funcs).Parse(`Hello {{.CustomerName}},

Your booking {{.Reference}} for {{.Date}}, {{.SlotLabel}} has been cancelled.
{{- if .RefundEligible}}
{{if deref .RefundEligible}}You are eligible for a full refund.{{else}}This cancellation falls inside the cancellation window and is not eligible for a refund.{{end}}
{{- end}}
`)),
	},
}

// Render produces the subject and plain-text body for n.
func Render(n models.Notification) (string, string, error) {
	t, ok := templates[n.Kind]
	if !ok {
		return "", "", fmt.Errorf("no template for %q", n.Kind)
	}
	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, n); err != nil {
		return "", "", err
	}
	if err := t.body.Execute(&body, n); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}
