package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// InvoiceEmail is the body the hosted send-invoice-email function expects.
type InvoiceEmail struct {
	InvoiceID     string `json:"invoiceId"`
	To            string `json:"to"`
	CustomerName  string `json:"customerName"`
	Amount        string `json:"amount"`
	ScheduledDate string `json:"scheduledDate"`
	Note          string `json:"note,omitempty"`
}

type Sender interface {
	SendInvoice(ctx context.Context, msg InvoiceEmail) error
}

// Client posts signed JSON to the email function.
type Client struct {
	HTTPClient *http.Client
	URL        string
	Secret     string
}

const SignatureHeader = "X-Signature-Sha256"

func (c Client) SendInvoice(ctx context.Context, msg InvoiceEmail) error {
	_, err := c.doJSON(ctx, http.MethodPost, msg)
	return err
}

func (c Client) doJSON(ctx context.Context, method string, reqBody any) (int, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.URL == "" {
		return 0, fmt.Errorf("missing mailer url")
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, c.Secret))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, readErr
	}

	// Surface the function's error body so callers can see template or address problems.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(b) > 0 {
			return resp.StatusCode, fmt.Errorf("mailer error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return resp.StatusCode, fmt.Errorf("mailer error: status=%d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// LogSender stands in for the email function when MAILER_URL is unset.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) SendInvoice(ctx context.Context, msg InvoiceEmail) error {
	if s.Log != nil {
		s.Log.Info("invoice email (mailer disabled)",
			zap.String("invoice_id", msg.InvoiceID),
			zap.String("to", msg.To),
			zap.String("scheduled_date", msg.ScheduledDate),
		)
	}
	return nil
}
