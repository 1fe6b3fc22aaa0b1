// Package chat provides an HTTP client for OpenAI-compatible Chat
// Completions backends. It handles request serialization, response
// parsing, SSE fragment streaming, and error mapping onto the harness
// error kinds.
//
// Constructing a Client performs no network I/O; the handle is read-only
// after construction and safe to reuse across sequential requests.
package chat
