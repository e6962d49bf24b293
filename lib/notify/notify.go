package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp SmtpConfig `json:"smtp"`
	To   string     `json:"to"`
}

// Enabled reports whether a notification target was configured at all.
func (c Config) Enabled() bool {
	return c.To != "" && c.Smtp.Server != ""
}

// SnapshotRecorded emails the operator a short confirmation that a
// snapshot landed in the store. The reference code ties the email to
// the run in the logs.
func SnapshotRecorded(ctx context.Context, config Config, groups int, balance string) error {
	_, span := tracer.Start(ctx, "SnapshotRecorded")
	defer span.End()

	reference, err := random.String(8)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate reference code")
		return err
	}
	span.SetAttributes(attribute.String("reference", reference))

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Nelnet Tracker <%s>", config.Smtp.EmailAddress)
	mail.To = []string{config.To}
	mail.Subject = fmt.Sprintf("Loan snapshot recorded (%s)", reference)

	body := fmt.Sprintf(`A new loan snapshot was recorded.

Groups: %d
Current balance: %s

If you did not run the tracker, someone else has access to your machine.`, groups, balance)
	mail.Text = []byte(body)

	err = mail.Send(
		fmt.Sprintf("%s:%d", config.Smtp.Server, config.Smtp.Port),
		smtp.PlainAuth("", config.Smtp.EmailAddress, config.Smtp.Password, config.Smtp.Server),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send notification email")
		return err
	}
	return nil
}
