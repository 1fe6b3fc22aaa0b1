package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rhuss/probelauf/pkg/api"
)

// parseSSE reads Chat Completions SSE chunks from body and sends the
// text fragments on ch. The channel is NOT closed by this function; the
// caller is responsible for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed chunks are logged and skipped. Context cancellation stops
// reading immediately.
func parseSSE(ctx context.Context, body io.Reader, ch chan<- Event) {
	scanner := bufio.NewScanner(body)

	for scanner.Scan() {
		// Check for context cancellation between lines.
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// SSE lines that don't start with "data: " are ignored
		// (e.g., empty lines, comments starting with ":").
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")

		// The [DONE] sentinel is the clean terminal signal.
		if payload == "[DONE]" {
			return
		}

		var c chunk
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"error", err.Error(),
				"data", truncate(payload, 200),
			)
			continue
		}

		// No choices means a usage-only final chunk; nothing to forward.
		if len(c.Choices) == 0 {
			continue
		}

		choice := c.Choices[0]

		// finish_reason marks the end of content; [DONE] follows.
		if choice.FinishReason != nil {
			continue
		}

		// Role-only chunks carry no text.
		if choice.Delta.Content == nil || *choice.Delta.Content == "" {
			continue
		}

		select {
		case ch <- Event{Delta: *choice.Delta.Content}:
		case <-ctx.Done():
			return
		}
	}

	// Scanner error (e.g., connection dropped mid-stream).
	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		select {
		case ch <- Event{Err: api.NewTransportError("stream read error: " + err.Error())}:
		case <-ctx.Done():
		}
	}
}

// truncate limits a string to maxLen bytes for log output without
// splitting a multi-byte rune at the cut point.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
