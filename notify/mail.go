package notify

import (
	"fmt"
	"html"
	"strings"

	"condo-app/config"
	"condo-app/unitimport"

	"gopkg.in/gomail.v2"
)

// Sender delivers a prepared message. gomail's Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailNotifier emails import summaries to the administrators.
type MailNotifier struct {
	sender Sender
	from   string
	to     []string
}

func NewMailNotifier(sender Sender, from string, to []string) *MailNotifier {
	return &MailNotifier{sender: sender, from: from, to: to}
}

// NewMailNotifierFromConfig returns nil when SMTP or recipients are not
// configured; a nil notifier silently skips sending.
func NewMailNotifierFromConfig() *MailNotifier {
	if config.SMTPHost == "" || len(config.NotifyImportTo) == 0 {
		return nil
	}
	dialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword)
	return NewMailNotifier(dialer, config.SMTPFrom, config.NotifyImportTo)
}

func (n *MailNotifier) ImportFinished(condominium, source string, result unitimport.Result) error {
	if n == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", n.to...)
	msg.SetHeader("Subject", importSubject(condominium, result))
	msg.SetBody("text/html", importBody(condominium, source, result))

	if err := n.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send import notification: %w", err)
	}
	return nil
}

func importSubject(condominium string, result unitimport.Result) string {
	switch result.Outcome {
	case unitimport.OutcomeSuccess:
		return fmt.Sprintf("Unit import completed for %s", condominium)
	case unitimport.OutcomeRejected:
		return fmt.Sprintf("Unit import rejected for %s", condominium)
	default:
		return fmt.Sprintf("Unit import stopped for %s", condominium)
	}
}

func importBody(condominium, source string, result unitimport.Result) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(result.Message))
	fmt.Fprintf(&b, "<p>Condominium: <strong>%s</strong></p>", html.EscapeString(condominium))
	if source != "" {
		fmt.Fprintf(&b, "<p>File: %s</p>", html.EscapeString(source))
	}
	fmt.Fprintf(&b, "<p>Rows: %d, imported: %d (created %d, updated %d)</p>",
		result.Total, result.Imported, result.Created, result.Updated)

	if len(result.Errors) > 0 {
		b.WriteString("<ul>")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "<li>Row %d (%s): %s</li>", e.Row, html.EscapeString(e.UnitCode),
				html.EscapeString(strings.Join(e.Messages, "; ")))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("<p>This is an auto-generated email. Please do not reply.</p>")
	b.WriteString("</body></html>")
	return b.String()
}
