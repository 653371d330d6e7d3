// Package entities provides core domain entities for the bootstrap host.
// These are plain value types shared by the runner, the WASM host and the reporters.
package entities
