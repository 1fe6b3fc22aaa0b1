// Package verify runs connectivity scenarios against a chat-completion
// backend and reports per-scenario outcomes.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/rhuss/probelauf/pkg/api"
	"github.com/rhuss/probelauf/pkg/chat"
	"github.com/rhuss/probelauf/pkg/config"
	"github.com/rhuss/probelauf/pkg/observability"
)

// Scenario names in declaration order.
const (
	ScenarioBasic     = "basic"
	ScenarioStreaming = "streaming"
)

// Status is the result of one scenario.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Outcome captures the result of one scenario execution.
type Outcome struct {
	Scenario  string        `json:"scenario"`
	Status    Status        `json:"status"`
	Kind      api.ErrorKind `json:"kind,omitempty"`   // set when Status is fail
	Detail    string        `json:"detail,omitempty"` // failure detail, or response excerpt
	Duration  time.Duration `json:"duration"`
	Fragments int           `json:"fragments,omitempty"` // streamed fragments received
}

// Failed reports whether the outcome is a failure.
func (o Outcome) Failed() bool { return o.Status == StatusFail }

// CompletionClient is the backend surface the runner exercises. Satisfied
// by *chat.Client.
type CompletionClient interface {
	Complete(ctx context.Context, req *chat.Request) (*chat.Response, error)
	Stream(ctx context.Context, req *chat.Request) (<-chan chat.Event, error)
}

// Runner executes the verification scenarios sequentially against one
// backend. Scenarios are independent: a failure in one never prevents
// the following scenarios from running.
type Runner struct {
	client CompletionClient
	check  *config.Check
	logger *slog.Logger
}

// NewRunner builds a Runner for the given client and check configuration.
func NewRunner(client CompletionClient, check *config.Check, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{client: client, check: check, logger: logger}
}

// Run executes every scenario in declaration order and returns their
// outcomes in the same order. Run always returns one outcome per
// scenario; it never returns early.
func (r *Runner) Run(ctx context.Context) []Outcome {
	scenarios := []struct {
		name string
		fn   func(context.Context) Outcome
	}{
		{ScenarioBasic, r.runBasic},
		{ScenarioStreaming, r.runStreaming},
	}

	outcomes := make([]Outcome, 0, len(scenarios))
	for _, s := range scenarios {
		r.logger.Info("running scenario", "scenario", s.name, "model", r.check.Model)

		outcome := s.fn(ctx)
		outcomes = append(outcomes, outcome)

		observability.ScenariosTotal.WithLabelValues(outcome.Scenario, string(outcome.Status)).Inc()
		observability.ScenarioDuration.WithLabelValues(outcome.Scenario).Observe(outcome.Duration.Seconds())

		if outcome.Failed() {
			r.logger.Error("scenario failed",
				"scenario", outcome.Scenario,
				"kind", string(outcome.Kind),
				"detail", outcome.Detail,
				"duration", outcome.Duration,
			)
		} else {
			r.logger.Info("scenario passed",
				"scenario", outcome.Scenario,
				"duration", outcome.Duration,
			)
		}
	}

	status := StatusPass
	if !AllPassed(outcomes) {
		status = StatusFail
	}
	observability.RunsTotal.WithLabelValues(string(status)).Inc()
	if status == StatusPass {
		observability.LastRunSuccess.Set(1)
	} else {
		observability.LastRunSuccess.Set(0)
	}

	return outcomes
}

// runBasic sends a single non-streaming completion and requires a
// non-empty text answer.
func (r *Runner) runBasic(ctx context.Context) Outcome {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, r.check.RequestTimeout)
	defer cancel()

	resp, err := r.client.Complete(reqCtx, &chat.Request{
		Model:       r.check.Model,
		Messages:    []chat.Message{{Role: chat.RoleUser, Content: r.check.Prompt}},
		Temperature: r.check.Temperature,
		MaxTokens:   r.check.MaxTokens,
	})
	if err != nil {
		return failure(ScenarioBasic, err, time.Since(start))
	}

	text := resp.Text()
	if text == "" {
		return Outcome{
			Scenario: ScenarioBasic,
			Status:   StatusFail,
			Kind:     api.KindTransport,
			Detail:   "backend returned an empty completion",
			Duration: time.Since(start),
		}
	}

	return Outcome{
		Scenario: ScenarioBasic,
		Status:   StatusPass,
		Detail:   excerpt(text),
		Duration: time.Since(start),
	}
}

// runStreaming opens a streaming completion and requires at least one
// text fragment followed by a clean end of stream. Every wait is bounded
// by the fragment timeout: the wait for the response headers, the wait
// for the first fragment, and the wait between fragments. A backend that
// accepts the request but then stalls at any of these points fails this
// scenario with a timeout instead of blocking the run.
func (r *Runner) runStreaming(ctx context.Context) Outcome {
	start := time.Now()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	timer := time.NewTimer(r.check.FragmentTimeout)
	defer timer.Stop()

	// Stream blocks until the response headers arrive, so the call
	// itself runs under the timer. Cancelling streamCtx on expiry
	// unblocks the underlying request.
	type streamResult struct {
		ch  <-chan chat.Event
		err error
	}
	opened := make(chan streamResult, 1)
	go func() {
		ch, err := r.client.Stream(streamCtx, &chat.Request{
			Model:       r.check.Model,
			Messages:    []chat.Message{{Role: chat.RoleUser, Content: r.check.StreamPrompt}},
			Temperature: r.check.Temperature,
			MaxTokens:   r.check.MaxTokens,
		})
		opened <- streamResult{ch: ch, err: err}
	}()

	var ch <-chan chat.Event
	select {
	case res := <-opened:
		if res.err != nil {
			return failure(ScenarioStreaming, res.err, time.Since(start))
		}
		ch = res.ch

	case <-timer.C:
		cancel()
		return Outcome{
			Scenario: ScenarioStreaming,
			Status:   StatusFail,
			Kind:     api.KindTimeout,
			Detail:   "no streaming response within " + r.check.FragmentTimeout.String(),
			Duration: time.Since(start),
		}

	case <-ctx.Done():
		return failure(ScenarioStreaming, ctx.Err(), time.Since(start))
	}

	if !timer.Stop() {
		<-timer.C
	}
	timer.Reset(r.check.FragmentTimeout)

	var fragments int
	var text []byte
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				// Clean end of stream.
				if fragments == 0 {
					return Outcome{
						Scenario: ScenarioStreaming,
						Status:   StatusFail,
						Kind:     api.KindTransport,
						Detail:   "stream ended without any text fragment",
						Duration: time.Since(start),
					}
				}
				return Outcome{
					Scenario:  ScenarioStreaming,
					Status:    StatusPass,
					Detail:    excerpt(string(text)),
					Duration:  time.Since(start),
					Fragments: fragments,
				}
			}
			if ev.Err != nil {
				o := failure(ScenarioStreaming, ev.Err, time.Since(start))
				o.Fragments = fragments
				return o
			}

			fragments++
			text = append(text, ev.Delta...)
			observability.FragmentsTotal.Inc()

			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(r.check.FragmentTimeout)

		case <-timer.C:
			cancel()
			return Outcome{
				Scenario:  ScenarioStreaming,
				Status:    StatusFail,
				Kind:      api.KindTimeout,
				Detail:    "no fragment received within " + r.check.FragmentTimeout.String(),
				Duration:  time.Since(start),
				Fragments: fragments,
			}

		case <-ctx.Done():
			o := failure(ScenarioStreaming, ctx.Err(), time.Since(start))
			o.Fragments = fragments
			return o
		}
	}
}

// failure builds a fail outcome from an error, classifying it by kind.
func failure(scenario string, err error, d time.Duration) Outcome {
	kind := api.KindOf(err)
	if errors.Is(err, context.DeadlineExceeded) {
		kind = api.KindTimeout
	}
	return Outcome{
		Scenario: scenario,
		Status:   StatusFail,
		Kind:     kind,
		Detail:   err.Error(),
		Duration: d,
	}
}

// excerpt shortens response text for display in reports. The cut never
// splits a multi-byte rune.
func excerpt(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
