package alerts

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

func welcomeEnvelope(to Recipient, appURL string) EmailEnvelope {
	return EmailEnvelope{
		To:      to.Email,
		Subject: fmt.Sprintf("Welcome to Distal, %s!", to.Name),
		Body: fmt.Sprintf(`<h2>Hello %s,</h2>
<p>Thanks for joining Distal.</p>
<p><a href="%s">Open Distal</a></p>`,
			html.EscapeString(to.Name), strings.TrimRight(appURL, "/")),
	}
}

func newMessageEnvelope(to Recipient, jobTitle string) EmailEnvelope {
	return EmailEnvelope{
		To:      to.Email,
		Subject: fmt.Sprintf("New message regarding %q", jobTitle),
		Body: fmt.Sprintf(`<h2>Hello %s,</h2>
<p>You have received a new message regarding the job "%s".</p>
<p>Please log in to your account to view and respond to the message.</p>`,
			html.EscapeString(to.Name), html.EscapeString(jobTitle)),
	}
}

func paymentReceivedEnvelope(to Recipient, amount decimal.Decimal, jobTitle string) EmailEnvelope {
	return EmailEnvelope{
		To:      to.Email,
		Subject: fmt.Sprintf("Payment received for %q", jobTitle),
		Body: fmt.Sprintf(`<h2>Hello %s,</h2>
<p>A payment of $%s has been received for the job "%s".</p>
<p>The funds will be held in escrow until the milestone is completed and approved.</p>`,
			html.EscapeString(to.Name), amount.StringFixed(2), html.EscapeString(jobTitle)),
	}
}
