package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
)

// MailerClient delivers one rendered email request to the external mailer
// service. Template rendering and SMTP delivery live there, not here.
type MailerClient interface {
	SendEmail(ctx context.Context, req *models.EmailRequest) error
}

type mailerClient struct {
	baseURL    string
	endpoint   string
	retryCount int
	retryDelay time.Duration
	client     *http.Client
	logger     zerolog.Logger
}

func NewMailerClient(baseURL, endpoint string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) MailerClient {
	return &mailerClient{
		baseURL:    baseURL,
		endpoint:   endpoint,
		retryCount: retryCount,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *mailerClient) SendEmail(ctx context.Context, emailReq *models.EmailRequest) error {
	body, err := json.Marshal(emailReq)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("to", emailReq.To).Msg("Retrying email delivery")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
			resp.Body.Close()
			c.logger.Debug().Str("to", emailReq.To).Str("template", emailReq.Template).Msg("Email accepted by mailer")
			return nil
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("mailer returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", c.retryCount+1, lastErr)
}
