package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lchen64/pid-diffusion/internal/ctxlog"
)

// RunEvent is the payload posted to the notify webhook after a run
// finishes, whatever its outcome.
type RunEvent struct {
	RunID    string  `json:"run_id"`
	Run      string  `json:"run"`
	Trainer  string  `json:"trainer"`
	ExitCode int     `json:"exit_code"`
	LogDir   string  `json:"logdir"`
	Duration float64 `json:"duration_seconds"`
}

// Notifier posts run lifecycle events to a webhook. Delivery is best
// effort: a failed notification is logged and never fails the run.
type Notifier struct {
	url    string
	client *http.Client
}

// NewNotifier creates a notifier for the given URL. An empty URL yields
// a disabled notifier whose Notify is a no-op.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts a single run event.
func (n *Notifier) Notify(ctx context.Context, event RunEvent) {
	if n == nil || n.url == "" {
		return
	}
	logger := ctxlog.FromContext(ctx).With("run", event.Run)

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warn("Could not encode run event.", "error", err)
		return
	}

	// The event should still go out when the plan was cancelled, so the
	// request does not inherit the run's cancellation.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		logger.Warn("Could not build notify request.", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		logger.Warn("Run event notification failed.", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warn("Run event notification rejected.", "status", resp.Status)
		return
	}
	logger.Debug("Run event delivered.", "status", resp.Status)
}
