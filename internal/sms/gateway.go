package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the gateway that will carry one message. Each company can
// configure its own gateway; the process-wide fallback comes from env.
type Config struct {
	URL      string
	APIKey   string
	SenderID string
}

type Sender struct {
	client *http.Client
	log    zerolog.Logger
	devLog bool
}

// NewSender builds the SMS sender. With devLog set, messages are written to
// the log instead of a gateway, so local environments need no SMS account.
func NewSender(log zerolog.Logger, devLog bool) *Sender {
	return &Sender{
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("component", "sms").Logger(),
		devLog: devLog,
	}
}

type gatewayPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// SendOTP delivers a login code to the given mobile number.
func (s *Sender) SendOTP(cfg Config, mobile string, code string) error {
	message := "Your login code is: " + code + ". It expires soon."
	return s.Send(cfg, mobile, message)
}

func (s *Sender) Send(cfg Config, mobile string, message string) error {
	if s.devLog || cfg.URL == "" {
		s.log.Info().Str("mobile", mobile).Str("message", message).Msg("sms (dev mode, not delivered)")
		return nil
	}

	body, err := json.Marshal(gatewayPayload{To: mobile, Message: message, Sender: cfg.SenderID})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
