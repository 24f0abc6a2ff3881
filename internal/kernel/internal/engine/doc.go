// Package engine implements the mutation kernel: action parsing, sanitization,
// the entity handler registry, the concurrency guard, idempotent creates, audit
// diffs and the orchestrator composing them.
//
// Only internal/kernel can import this package, which keeps every entity write
// behind kernel.Mutate.
package engine
