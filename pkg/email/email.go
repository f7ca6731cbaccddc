package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const resendEndpoint = "https://api.resend.com/emails"

type EmailService struct {
	apiKey    string
	from      string
	endpoint  string
	client    *http.Client
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type ReferralRequestData struct {
	RecipientName string
	ReferrerName  string
	EntityLabel   string
	ItemLabel     string
	Note          string
}

type ReferralResolvedData struct {
	RecipientName string
	TargetName    string
	EntityLabel   string
	ItemLabel     string
	Confirmed     bool
}

type ViewingReminderItem struct {
	Time     time.Time
	Property string
	Lead     string
	Serious  bool
}

type ViewingReminderData struct {
	AgentName string
	Date      time.Time
	Viewings  []ViewingReminderItem
}

func NewEmailService(apiKey, from string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %w", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      from,
		endpoint:  resendEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(ctx context.Context, to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	jsonData, err := json.Marshal(EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("error marshaling email data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: status %d: %s", resp.StatusCode, string(respBody))
	}

	zap.L().Debug("email sent",
		zap.String("to", to),
		zap.String("template", templateName),
	)
	return nil
}

func (s *EmailService) SendReferralRequest(ctx context.Context, to string, data ReferralRequestData) error {
	subject := fmt.Sprintf("New %s referral: %s", data.EntityLabel, data.ItemLabel)
	return s.sendTemplateEmail(ctx, to, subject, "referral_request.html", data)
}

func (s *EmailService) SendReferralResolved(ctx context.Context, to string, data ReferralResolvedData) error {
	outcome := "rejected"
	if data.Confirmed {
		outcome = "confirmed"
	}
	subject := fmt.Sprintf("Your %s referral was %s", data.EntityLabel, outcome)
	return s.sendTemplateEmail(ctx, to, subject, "referral_resolved.html", data)
}

func (s *EmailService) SendViewingReminder(ctx context.Context, to string, data ViewingReminderData) error {
	subject := fmt.Sprintf("You have %d viewing(s) today", len(data.Viewings))
	return s.sendTemplateEmail(ctx, to, subject, "viewing_reminder.html", data)
}
