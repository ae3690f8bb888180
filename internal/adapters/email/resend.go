package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marilozgz/bigfivetrails/internal/adapters/observability"
	"github.com/marilozgz/bigfivetrails/internal/domain"
)

const defaultEndpoint = "https://api.resend.com/emails"

// Client delivers contact notifications through the Resend HTTP API.
// A nil Client drops messages, so the API can run without mail credentials.
type Client struct {
	apiKey   string
	from     string
	to       []string
	endpoint string
	hc       *http.Client
}

// New returns nil when apiKey or the recipient list is empty.
func New(apiKey, from, to string) *Client {
	recipients := splitRecipients(to)
	if strings.TrimSpace(apiKey) == "" || len(recipients) == 0 {
		return nil
	}
	if strings.TrimSpace(from) == "" {
		from = "Big Five Trails <noreply@bigfivetrails.com>"
	}
	return &Client{
		apiKey:   apiKey,
		from:     from,
		to:       recipients,
		endpoint: defaultEndpoint,
		hc:       &http.Client{Timeout: 8 * time.Second},
	}
}

func splitRecipients(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *Client) SendContact(ctx context.Context, msg domain.ContactMessage) error {
	if c == nil {
		return nil
	}
	payload := sendRequest{
		From:    c.from,
		To:      c.to,
		Subject: "Nuevo mensaje de contacto - " + msg.FirstName,
		HTML:    contactHTML(msg),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("email: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("email: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("resend", "emails", 0, time.Since(start))
		return fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("resend", "emails", resp.StatusCode, time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email: send failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func contactHTML(msg domain.ContactMessage) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: system-ui, sans-serif; line-height:1.5; color:#111">`)
	b.WriteString(`<h2 style="margin:0 0 12px">Nuevo mensaje de contacto</h2>`)
	b.WriteString(`<table style="border-collapse:collapse; width:100%"><tbody>`)

	name := msg.FirstName
	if msg.LastName != "" {
		name += " " + msg.LastName
	}
	row(&b, "Nombre", name)
	row(&b, "Email", msg.Email)
	row(&b, "Teléfono", msg.Phone)
	row(&b, "Tipo viaje", msg.TripType)
	row(&b, "Viajeros", msg.Travelers)
	row(&b, "Presupuesto", msg.Budget)

	b.WriteString(`</tbody></table>`)
	b.WriteString(`<hr style="margin:16px 0; border:none; border-top:1px solid #eee"/>`)
	b.WriteString(`<p style="white-space:pre-wrap">` + html.EscapeString(msg.Message) + `</p>`)
	b.WriteString(`</div>`)
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, `<tr><td><strong>%s</strong></td><td>%s</td></tr>`, label, html.EscapeString(value))
}
