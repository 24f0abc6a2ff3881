// Package mutation defines the write contract shared by the kernel and its callers.
//
// These types avoid persistence and transport details. A caller builds a Spec,
// hands it to the kernel together with its tenant context, and receives a Receipt.
package mutation
