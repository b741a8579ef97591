// Package notify sends task reminder emails through the Resend API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kirstym/tasknest/internal/logging"
	"github.com/kirstym/tasknest/pkg/models"
	"github.com/kirstym/tasknest/pkg/timefmt"
)

const (
	resendBaseURL = "https://api.resend.com/emails"
	defaultFrom   = "TaskNest <reminders@resend.dev>"
)

// ErrNoAPIKey indicates the Resend credential is missing.
var ErrNoAPIKey = errors.New("resend API key not set")

// Mailer sends a reminder for one task.
type Mailer interface {
	SendReminder(ctx context.Context, to string, task *models.Task) error
}

// ResendClient is a Mailer backed by the Resend transactional-email API.
type ResendClient struct {
	apiKey  string
	from    string
	baseURL string
	clock   timefmt.Clock
	client  *http.Client
	log     zerolog.Logger
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendClient creates a Resend-backed mailer. Empty from and baseURL
// select the defaults; clock controls how due dates are rendered.
func NewResendClient(apiKey, from, baseURL string, clock timefmt.Clock) *ResendClient {
	if from == "" {
		from = defaultFrom
	}
	if baseURL == "" {
		baseURL = resendBaseURL
	}
	if !clock.Valid() {
		clock = timefmt.Default
	}
	return &ResendClient{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
		clock:   clock,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     logging.Component("notify"),
	}
}

var reminderTmpl = template.Must(template.New("reminder").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #588157; border-bottom: 2px solid #588157; padding-bottom: 10px;">&#128203; Task Reminder</h1>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h2 style="color: #3a5a40; margin-top: 0;">{{.Title}}</h2>
    {{if .Description}}<p style="color: #6c757d; margin: 10px 0;"><strong>Description:</strong> {{.Description}}</p>{{end}}
    {{if .DueDate}}<p style="color: #6c757d; margin: 10px 0;"><strong>Due Date:</strong> {{.DueDate}}</p>{{end}}
  </div>
  <p style="color: #6c757d;">This is a friendly reminder about your upcoming task in TaskNest.</p>
  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e9ecef; color: #6c757d; font-size: 12px;">
    <p>Best regards,<br>The TaskNest Team</p>
    <p>You're receiving this because you have email reminders enabled for your tasks.</p>
  </div>
</div>`))

// SendReminder emails a reminder for the task to the given address.
func (c *ResendClient) SendReminder(ctx context.Context, to string, task *models.Task) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	var due string
	if task.DueDate != nil {
		due = c.clock.DateTime(*task.DueDate)
	}

	var html bytes.Buffer
	err := reminderTmpl.Execute(&html, struct {
		Title       string
		Description string
		DueDate     string
	}{task.Title, task.Description, due})
	if err != nil {
		return fmt.Errorf("render reminder email: %w", err)
	}

	body, err := json.Marshal(resendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: "Reminder: " + task.Title,
		HTML:    html.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend API error (%d): %s", resp.StatusCode, respBody)
	}

	var sent resendResponse
	if err := json.Unmarshal(respBody, &sent); err == nil && sent.ID != "" {
		c.log.Info().Str("email_id", sent.ID).Str("task_id", task.ID).Msg("reminder sent")
	}

	return nil
}
