// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package alert formats and delivers failure notifications over email and
// webhook. Delivery failures are logged and swallowed: alerting problems
// must never abort a probing run.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/netcheck/netcheck/result"
)

const (
	webhookTimeout = 30 * time.Second
	webhookRetries = 3
)

// webhookURLRe constrains destinations to a plain http(s)://host[:port][/path]
// shape. Shell metacharacters are rejected separately as defense in depth;
// no shell is involved on this path.
var webhookURLRe = regexp.MustCompile(`^https?://[A-Za-z0-9.-]+(:[0-9]{1,5})?(/[A-Za-z0-9._~%/-]*)?$`)

const forbiddenURLChars = ";|&$` ()<>{}'\"\\"

// Config controls alert delivery.
type Config struct {
	Enabled    bool
	EmailTo    []string
	WebhookURL string
}

// EmailSender delivers a plain-text message. The default implementation
// uses SMTP; tests inject fakes.
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Dispatcher sends failure notifications for a finished run.
type Dispatcher struct {
	cfg    Config
	email  EmailSender
	client *http.Client
	logger *zap.Logger
}

// NewDispatcher returns a Dispatcher. email may be nil when no email
// destination is configured.
func NewDispatcher(cfg Config, email EmailSender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		email:  email,
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger,
	}
}

type webhookPayload struct {
	Text          string   `json:"text"`
	RunID         string   `json:"run_id"`
	FailedTargets []string `json:"failed_targets"`
	TotalTargets  int      `json:"total_targets"`
}

// Dispatch sends alerts naming every unreachable target. It is a no-op
// when alerting is disabled or the run had no failures, and it never
// returns delivery errors to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, summary *result.RunSummary) {
	if !d.cfg.Enabled || summary.AllReachable() {
		return
	}

	failed := summary.FailedTargets()
	message := formatMessage(summary.RunID, summary.Total(), failed)

	if d.email != nil && len(d.cfg.EmailTo) > 0 {
		subject := fmt.Sprintf("netcheck: %d of %d targets unreachable", len(failed), summary.Total())
		if err := d.email.Send(ctx, d.cfg.EmailTo, subject, message); err != nil {
			d.logger.Warn("email alert delivery failed", zap.Error(err))
		}
	}

	if d.cfg.WebhookURL != "" {
		if err := d.postWebhook(ctx, webhookPayload{
			Text:          message,
			RunID:         summary.RunID,
			FailedTargets: failed,
			TotalTargets:  summary.Total(),
		}); err != nil {
			d.logger.Warn("webhook alert delivery failed",
				zap.String("url", d.cfg.WebhookURL), zap.Error(err))
		}
	}
}

func formatMessage(runID string, total int, failed []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reachability run %s: %d of %d targets unreachable.\n", runID, len(failed), total)
	b.WriteString("Unreachable targets:\n")
	for _, t := range failed {
		fmt.Fprintf(&b, "  - %s\n", t)
	}
	return b.String()
}

// ValidateWebhookURL rejects destinations that are not a plain http(s)
// URL or that carry shell metacharacters.
func ValidateWebhookURL(raw string) error {
	if strings.ContainsAny(raw, forbiddenURLChars) {
		return fmt.Errorf("webhook URL contains forbidden characters")
	}
	if !webhookURLRe.MatchString(raw) {
		return fmt.Errorf("webhook URL %q is not a valid http(s) URL", raw)
	}
	return nil
}

func (d *Dispatcher) postWebhook(ctx context.Context, payload webhookPayload) error {
	if err := ValidateWebhookURL(d.cfg.WebhookURL); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = 5 * time.Second

	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 == 4 {
			// Client errors are non-retriable.
			return struct{}{}, backoff.Permanent(fmt.Errorf("webhook returned %d", resp.StatusCode))
		}
		if resp.StatusCode/100 != 2 {
			return struct{}{}, fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
		return struct{}{}, nil
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff), backoff.WithMaxTries(webhookRetries))
	return err
}
