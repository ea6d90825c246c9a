package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"laptopVision/pkg/logger"
	"net/http"
	"time"

	"github.com/pobyzaarif/goshortcute"
)

type MailjetConfig struct {
	MailjetBaseURL           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

// MailjetRepository delivers transactional email through the Mailjet send API.
// Callers in the order/payment flow treat failures as best-effort.
type MailjetRepository struct {
	mailjetConfig MailjetConfig
	client        *http.Client
}

func NewMailjetRepository(cfg MailjetConfig) *MailjetRepository {
	return &MailjetRepository{
		mailjetConfig: cfg,
		client:        &http.Client{Timeout: 5 * time.Second},
	}
}

type address struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type message struct {
	From     address   `json:"From"`
	To       []address `json:"To"`
	Subject  string    `json:"Subject"`
	HTMLPart string    `json:"HTMLPart"`
}

type sendPayload struct {
	Messages []message `json:"Messages"`
}

func (r *MailjetRepository) SendEmail(toName, toEmail, subject, htmlBody string) error {
	payload := sendPayload{
		Messages: []message{{
			From: address{
				Email: r.mailjetConfig.MailjetSenderEmail,
				Name:  r.mailjetConfig.MailjetSenderName,
			},
			To:       []address{{Email: toEmail, Name: toName}},
			Subject:  subject,
			HTMLPart: htmlBody,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.mailjetConfig.MailjetBaseURL+"/v3.1/send", bytes.NewReader(body))
	if err != nil {
		return err
	}

	basicAuth := goshortcute.StringtoBase64Encode(r.mailjetConfig.MailjetBasicAuthUsername + ":" + r.mailjetConfig.MailjetBasicAuthPassword)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Basic "+basicAuth)

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}

	logger.Warn("mailjet returned negative response", "status", res.StatusCode, "to", toEmail)
	return fmt.Errorf("mailer service returned status %v", res.StatusCode)
}
