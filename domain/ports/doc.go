// Package ports defines the interfaces the bootstrap runner depends on.
// The runner only sees these abstractions; the WASM host and the reporters
// implement them.
package ports
