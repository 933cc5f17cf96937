// Package notify delivers crossover alert emails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Signal carries the data rendered into one crossover alert email.
type Signal struct {
	Symbol       string
	Name         string
	Price        decimal.Decimal
	SMA200       decimal.Decimal
	PercentBelow decimal.Decimal
}

// Notifier is the delivery contract the scanner depends on. Delivery is
// synchronous; the scanner waits for the outcome before recording an alert.
type Notifier interface {
	Send(ctx context.Context, signal Signal) error
}

// EmailNotifier sends signal emails through the Resend API.
type EmailNotifier struct {
	client *resend.Client
	from   string
	to     string
}

func NewEmailNotifier(apiKey, from, to string) *EmailNotifier {
	return &EmailNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

var signalTemplate = template.Must(template.New("signal").Parse(`
<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #dc2626; margin-bottom: 16px;">BUY Signal: {{ .Symbol }}</h2>
  <p style="color: #374151; font-size: 15px; margin-bottom: 20px;">
    <strong>{{ .Name }}</strong> has dropped below its 200-day Simple Moving Average.
  </p>
  <table style="width: 100%; border-collapse: collapse; margin-bottom: 20px;">
    <tr style="border-bottom: 1px solid #e5e7eb;">
      <td style="padding: 10px 0; color: #6b7280;">Current Price</td>
      <td style="padding: 10px 0; text-align: right; font-weight: 600;">${{ .Price.StringFixed 2 }}</td>
    </tr>
    <tr style="border-bottom: 1px solid #e5e7eb;">
      <td style="padding: 10px 0; color: #6b7280;">200-Day SMA</td>
      <td style="padding: 10px 0; text-align: right; font-weight: 600;">${{ .SMA200.StringFixed 2 }}</td>
    </tr>
    <tr>
      <td style="padding: 10px 0; color: #6b7280;">Below SMA by</td>
      <td style="padding: 10px 0; text-align: right; font-weight: 600; color: #dc2626;">{{ .PercentBelow.StringFixed 2 }}%</td>
    </tr>
  </table>
  <p style="color: #9ca3af; font-size: 12px;">
    Signal generated at {{ .GeneratedAt }}. This is not financial advice.
  </p>
</div>
`))

type signalEmailData struct {
	Signal
	GeneratedAt string
}

func buildHTML(signal Signal) (string, error) {
	var buf bytes.Buffer
	data := signalEmailData{
		Signal:      signal,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := signalTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render alert email: %w", err)
	}
	return buf.String(), nil
}

// Send delivers one signal email and waits for the API's outcome.
func (n *EmailNotifier) Send(ctx context.Context, signal Signal) error {
	html, err := buildHTML(signal)
	if err != nil {
		return err
	}

	_, err = n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: fmt.Sprintf("BUY Signal: %s dropped below 200-day SMA", signal.Symbol),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info().Str("symbol", signal.Symbol).Str("to", n.to).Msg("Signal email sent")
	return nil
}
