// Package babel defines the core domain types shared across the discovery
// pipeline: page addresses, generated pages, and coherence score breakdowns.
//
// An Address is a lowercase hexadecimal string naming one deterministic
// page in an unbounded text space. Addresses are unbounded non-negative
// integers; leading zeros are preserved (the canonical examples use 8 hex
// digits), so "00000001" and "1" are distinct identifiers that select the
// same generated text.
package babel
