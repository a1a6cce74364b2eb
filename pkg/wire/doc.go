// Package wire defines the CBOR wire format of the WiFi cross-validation
// test protocol.
//
// Messages use CBOR (RFC 8949) maps with integer keys. The host drives the
// test by sending StepStartCommand messages; the agent answers each step
// with a TestResult.
//
// # Message Types
//
//   - STEP_START (host to agent): StepStartCommand {1: step}
//   - STEP_RESULT (agent to host): TestResult {1: code, 2: errorMessage}
//
// # Encoded Size
//
// TestResult carries a variable-length diagnostic string. EncodedSize
// computes the exact encoded length of a result without encoding it, so
// callers can allocate a buffer of exactly that size and fill it once with
// EncodeTestResultInto.
package wire
