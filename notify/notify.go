// Package notify sends status emails about provisioned entities.
// Delivery is best effort: every failure is returned as failure.NotificationError.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/store"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Message is what a Mailer delivers
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/notify/mailer.go -package notify . Mailer

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Notification struct {
	Recipient string
	Kind      store.Kind
	Name      string
	Action    Action
}

// Subject is "<Kind> <action>", e.g. "Organization created"
func Subject(kind store.Kind, action Action) string {
	return fmt.Sprintf("%s %s", kind.Title(), action)
}

var bodyTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello {{.Name}},</p>
{{- if eq .Action "created"}}
<p>Your {{.Kind}} <strong>{{.Name}}</strong> has been created successfully.</p>
{{- else if eq .Action "updated"}}
<p>Your {{.Kind}} <strong>{{.Name}}</strong> has been updated successfully.</p>
{{- else if eq .Action "deleted"}}
<p>Your {{.Kind}} <strong>{{.Name}}</strong> has been deleted.</p>
{{- end}}
<p>This is an automated message, please do not reply.</p>
</body>
</html>
`))

// Render builds the html body. Unknown actions render the envelope without the action paragraph.
func Render(n Notification) (string, error) {
	buf := &bytes.Buffer{}

	if err := bodyTemplate.Execute(buf, struct {
		Name   string
		Kind   string
		Action string
	}{
		Name:   n.Name,
		Kind:   string(n.Kind),
		Action: string(n.Action),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

type Notifier struct {
	from   string
	mailer Mailer
	logger log.Logger
}

func NewNotifier(from string, mailer Mailer, logger log.Logger) *Notifier {
	return &Notifier{from: from, mailer: mailer, logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, notification Notification) error {
	if notification.Recipient == "" {
		return failure.Newf(failure.NotificationError, "no recipient for %s %s notification", notification.Kind, notification.Action)
	}

	body, err := Render(notification)
	if err != nil {
		return failure.Wrapf(err, failure.NotificationError, "rendering %s %s notification", notification.Kind, notification.Action)
	}

	msg := Message{
		From:    n.from,
		To:      notification.Recipient,
		Subject: Subject(notification.Kind, notification.Action),
		HTML:    body,
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		return failure.Wrapf(err, failure.NotificationError, "sending '%s' to %s", msg.Subject, msg.To)
	}

	n.logger.Logf(log.DebugLevel, "sent '%s' to %s", msg.Subject, msg.To)

	return nil
}
