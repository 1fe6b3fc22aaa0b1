// Package api defines the error model shared across the probelauf harness.
//
// Errors fall into two groups. Configuration-time kinds (missing_field,
// invalid_endpoint, empty_credential, client_construction) are fatal: no
// valid client can be built, so the run aborts before any scenario
// executes. Scenario-time kinds (transport, authentication, timeout) are
// recoverable: the verification runner downgrades them to fail outcomes
// and continues with the remaining scenario.
//
// The package has zero external dependencies and performs no I/O.
package api
