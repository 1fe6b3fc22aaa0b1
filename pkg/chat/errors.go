package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/rhuss/probelauf/pkg/api"
)

// mapHTTPError converts an HTTP response with a non-2xx status code into
// a harness error. It attempts to parse the response body as an error
// envelope to extract a descriptive message.
func mapHTTPError(resp *http.Response) *api.Error {
	message := extractErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = fmt.Sprintf("backend rejected the credential (HTTP %d)", resp.StatusCode)
		}
		return api.NewAuthenticationError(message)

	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		if message == "" {
			message = fmt.Sprintf("backend timed out (HTTP %d)", resp.StatusCode)
		}
		return api.NewTimeoutError(message)

	default:
		if message == "" {
			message = fmt.Sprintf("backend error (HTTP %d)", resp.StatusCode)
		}
		return api.NewTransportError(message)
	}
}

// mapNetworkError converts a network-level error (connection refused,
// timeout, DNS resolution failure) into a harness error. Deadline and
// I/O timeouts map to the timeout kind, everything else to transport.
func mapNetworkError(err error) *api.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return api.NewTimeoutError("no response within the wait budget: " + err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return api.NewTimeoutError("no response within the wait budget: " + err.Error())
	}
	return api.NewTransportError("backend connection error: " + err.Error())
}

// extractErrorMessage tries to parse the response body as an error
// envelope and returns the message if found.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
