// Package dispatch sends one message to every resolved recipient of an
// allocation scope through an external webhook.
//
// Processing is strictly sequential with a fixed pause between calls —
// the provider contract allows no concurrent requests, and the pause is
// the only rate limiting. There are no retries and no batching;
// failures are counted, never raised, so one bad number cannot halt the
// run.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/store/messagelog"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

var (
	// ErrNoRecipients is returned when Send is called with an empty
	// recipient list; no batch is recorded.
	ErrNoRecipients = errors.New("no recipients to send to")

	// ErrChannelNotConfigured is returned when the requested channel has
	// no webhook URL. A channel never fakes success.
	ErrChannelNotConfigured = errors.New("channel has no webhook configured")

	// ErrEmptyMessage is returned when the message text is blank after
	// sanitizing.
	ErrEmptyMessage = errors.New("message text is empty")
)

// Config holds the engine's knobs. WhatsAppURL is required in practice;
// SMSURL and VoiceURL are optional until those providers exist.
type Config struct {
	WhatsAppURL string
	SMSURL      string
	VoiceURL    string

	// Delay is the fixed pause between webhook calls.
	Delay time.Duration

	// CountryCode is prepended to bare 10-digit numbers, e.g. "91".
	CountryCode string
}

// Request describes one batch.
type Request struct {
	Numbers []string
	Message string
	Channel string // models.ChannelWhatsApp | ChannelSMS | ChannelVoice
	Area    string // human description of the scope, for the log

	SentBy      primitive.ObjectID
	SentByEmail string
}

// Result summarizes one batch. Sent + Failed == Total always holds.
type Result struct {
	BatchID string `json:"batch_id"`
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Status  string `json:"status"`
}

// Engine performs webhook fan-out and records one message-log document
// per batch.
type Engine struct {
	cfg      Config
	client   *http.Client
	log      *zap.Logger
	msgStore *messagelog.Store
	sanitize *bluemonday.Policy
}

// New creates a dispatch Engine. msgStore may be nil in tests; then no
// batch record is written.
func New(cfg Config, msgStore *messagelog.Store, logger *zap.Logger) *Engine {
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	return &Engine{
		cfg:      cfg,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      logger,
		msgStore: msgStore,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Send walks the recipient list sequentially: format the number, issue
// one GET against the channel webhook, count the outcome, pause, next.
// Cancelling ctx between calls stops the run; the remaining recipients
// count as failed so the invariant Sent+Failed == Total survives.
func (e *Engine) Send(ctx context.Context, req Request) (Result, error) {
	if len(req.Numbers) == 0 {
		return Result{}, ErrNoRecipients
	}

	webhook, err := e.webhookFor(req.Channel)
	if err != nil {
		return Result{}, err
	}

	message := strings.TrimSpace(e.sanitize.Sanitize(req.Message))
	if message == "" {
		return Result{}, ErrEmptyMessage
	}

	res := Result{
		BatchID: uuid.NewString(),
		Total:   len(req.Numbers),
	}

	for i, number := range req.Numbers {
		if i > 0 {
			select {
			case <-time.After(e.cfg.Delay):
			case <-ctx.Done():
				res.Failed += res.Total - res.Sent - res.Failed
				e.log.Warn("dispatch cancelled mid-batch",
					zap.String("batch_id", res.BatchID),
					zap.Int("sent", res.Sent),
					zap.Int("remaining_failed", res.Failed))
				e.record(req, res, message)
				return e.finish(res), ctx.Err()
			}
		}

		formatted := e.FormatNumber(number)
		if err := e.callWebhook(ctx, webhook, formatted, message); err != nil {
			res.Failed++
			e.log.Debug("webhook call failed",
				zap.String("batch_id", res.BatchID),
				zap.String("number", formatted),
				zap.Error(err))
			continue
		}
		res.Sent++
	}

	res = e.finish(res)
	e.record(req, res, message)
	return res, nil
}

// FormatNumber applies the minimal normalization rule: a bare number of
// exactly 10 digits gets the country code prepended; everything else
// passes through untouched.
func (e *Engine) FormatNumber(number string) string {
	n := strings.TrimSpace(number)
	if len(n) == 10 && isDigits(n) {
		return e.cfg.CountryCode + n
	}
	return n
}

func (e *Engine) webhookFor(channel string) (string, error) {
	var u string
	switch channel {
	case models.ChannelWhatsApp:
		u = e.cfg.WhatsAppURL
	case models.ChannelSMS:
		u = e.cfg.SMSURL
	case models.ChannelVoice:
		u = e.cfg.VoiceURL
	default:
		return "", fmt.Errorf("unknown channel %q", channel)
	}
	if u == "" {
		return "", fmt.Errorf("%s: %w", channel, ErrChannelNotConfigured)
	}
	return u, nil
}

// callWebhook issues one GET with number and message query parameters.
// Any 2xx counts as accepted; anything else is a failure. No retries.
func (e *Engine) callWebhook(ctx context.Context, webhook, number, message string) error {
	q := url.Values{}
	q.Set("number", number)
	q.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webhook+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

func (e *Engine) finish(res Result) Result {
	switch {
	case res.Failed == 0:
		res.Status = models.SendStatusSent
	case res.Sent == 0:
		res.Status = models.SendStatusFailed
	default:
		res.Status = models.SendStatusPartial
	}
	return res
}

// record writes the per-batch message-log document. Log failures are
// reported but do not fail the batch; the send already happened.
func (e *Engine) record(req Request, res Result, message string) {
	if e.msgStore == nil {
		return
	}
	// Fresh context: the batch context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := e.msgStore.Record(ctx, models.MessageRecord{
		BatchID:        res.BatchID,
		SentBy:         req.SentBy,
		SentByEmail:    req.SentByEmail,
		Channel:        req.Channel,
		Message:        message,
		Area:           req.Area,
		RecipientCount: res.Total,
		SentCount:      res.Sent,
		FailedCount:    res.Failed,
		SendStatus:     e.finish(res).Status,
	})
	if err != nil {
		e.log.Error("failed to record message batch",
			zap.Error(err),
			zap.String("batch_id", res.BatchID))
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
