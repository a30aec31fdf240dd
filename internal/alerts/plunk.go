package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// PlunkMailer sends through the Plunk HTTP API.
type PlunkMailer struct {
	client *resty.Client
	apiURL string
	from   string
}

func NewPlunkMailer(apiURL, apiKey, from string) *PlunkMailer {
	client := resty.New().
		SetTimeout(15*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &PlunkMailer{client: client, apiURL: apiURL, from: from}
}

type plunkSendBody struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
}

func (m *PlunkMailer) Send(ctx context.Context, to, subject, body string) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(plunkSendBody{To: to, Subject: subject, Body: body, From: m.from}).
		Post(m.apiURL)
	if err != nil {
		return fmt.Errorf("plunk request: %w", err)
	}
	if resp.IsError() {
		if b := resp.String(); b != "" {
			return fmt.Errorf("plunk send failed: status=%d body=%s", resp.StatusCode(), b)
		}
		return fmt.Errorf("plunk send failed: status=%d", resp.StatusCode())
	}
	return nil
}
