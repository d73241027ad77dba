// Package protocol owns the SimpleNet wire contract and parsing primitives.
//
// Ownership boundary:
// - request framing and path validation
// - response framing and lenient decoding
// - status code vocabulary
package protocol
