package email

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/remote"
)

const (
	// sourceName keys the dedup ledger.
	sourceName = "email"

	lookback   = 7 * 24 * time.Hour
	fetchLimit = 100
	snippetLen = 280

	pollTimeout = 60 * time.Second
)

// Fetcher is the mailbox access the watcher needs. Implemented by
// IMAPClient.
type Fetcher interface {
	FetchEnvelopes(ctx context.Context, since time.Time, limit int) ([]Envelope, error)
	FetchMessage(ctx context.Context, uid uint32) (*ParsedMessage, error)
}

// Dedup remembers which messages were already ingested. Implemented by
// the cache package.
type Dedup interface {
	IsSeen(source, messageID string) (bool, error)
	MarkSeen(source, messageID string) error
}

// Ingester receives the arriving notifications. Implemented by the
// engine.
type Ingester interface {
	Ingest(raw remote.RawNotification) model.Notification
}

// Watcher polls the mailbox and feeds unseen messages to the ingester.
type Watcher struct {
	fetcher      Fetcher
	dedup        Dedup
	ingester     Ingester
	logger       *slog.Logger
	interval     time.Duration
	senderFilter string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a mailbox watcher. senderFilter, when non-empty,
// restricts ingestion to messages from that address.
func NewWatcher(
	fetcher Fetcher,
	dedup Dedup,
	ingester Ingester,
	logger *slog.Logger,
	interval time.Duration,
	senderFilter string,
) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fetcher:      fetcher,
		dedup:        dedup,
		ingester:     ingester,
		logger:       logger,
		interval:     interval,
		senderFilter: senderFilter,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the poll loop: one immediate poll, then one per
// interval.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop()
}

// Stop halts the poll loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
}

func (w *Watcher) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.pollOnce()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

func (w *Watcher) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	if err := w.Poll(ctx); err != nil {
		w.logger.Warn("mailbox poll failed", "error", err)
	}
}

// Poll fetches recent envelopes and ingests every unseen message that
// passes the sender filter.
func (w *Watcher) Poll(ctx context.Context) error {
	since := time.Now().Add(-lookback)
	envelopes, err := w.fetcher.FetchEnvelopes(ctx, since, fetchLimit)
	if err != nil {
		return fmt.Errorf("fetching envelopes: %w", err)
	}

	for _, env := range envelopes {
		if w.senderFilter != "" &&
			!strings.EqualFold(env.FromAddr, w.senderFilter) {
			continue
		}

		key := env.MessageID
		if key == "" {
			key = fmt.Sprintf("uid-%d", env.UID)
		}

		seen, err := w.dedup.IsSeen(sourceName, key)
		if err != nil {
			w.logger.Warn("dedup lookup failed", "key", key, "error", err)
			continue
		}
		if seen {
			continue
		}

		raw := w.buildNotification(ctx, env)
		w.ingester.Ingest(raw)

		if err := w.dedup.MarkSeen(sourceName, key); err != nil {
			w.logger.Warn("dedup record failed", "key", key, "error", err)
		}
	}

	return nil
}

// buildNotification maps a message onto the raw notification shape.
// The subject doubles as the classification hint.
func (w *Watcher) buildNotification(
	ctx context.Context, env Envelope,
) remote.RawNotification {
	message := "From " + env.From

	parsed, err := w.fetcher.FetchMessage(ctx, env.UID)
	if err != nil {
		w.logger.Warn("message fetch failed; using envelope only",
			"uid", env.UID, "error", err)
	} else {
		body := parsed.TextBody
		if body == "" && parsed.HTMLBody != "" {
			body = stripHTML(parsed.HTMLBody)
		}
		if body != "" {
			message = snippet(body)
		}
	}

	title := env.Subject
	if title == "" {
		title = "New message from " + env.From
	}

	createdAt := env.Date
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return remote.RawNotification{
		ID:        "email-" + uuid.NewString(),
		Type:      env.Subject,
		Title:     title,
		Message:   message,
		Read:      false,
		CreatedAt: createdAt,
	}
}

var (
	htmlTagRe        = regexp.MustCompile(`<[^>]*>`)
	htmlWhitespaceRe = regexp.MustCompile(`\s+`)
)

// stripHTML crudely reduces an HTML body to its text content.
func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = htmlWhitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// snippet trims a body to the first few lines of displayable text.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n\n"); idx > 0 {
		s = s[:idx]
	}
	s = htmlWhitespaceRe.ReplaceAllString(s, " ")
	if len(s) > snippetLen {
		s = strings.TrimSpace(s[:snippetLen]) + "…"
	}
	return s
}
