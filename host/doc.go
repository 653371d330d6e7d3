// Package host provides the runtime environment for loading and running
// binary (WASM) modules.
//
// It abstracts the underlying WASM engine (wazero), manages module lifecycle
// and handles the low-level ABI interactions: memory allocation in the guest,
// packing of pointer/length pairs and decoding of guest-reported failures.
// It also exposes the log_message host function so guest log records land on
// the host logger.
//
// # Guest ABI
//
// A module must export:
//
//   - memory
//   - allocate(size i32) i32, used by the host to place the argument
//   - run(ptr i32, len i32) with no result or one i64 result
//
// A zero result means success. A non-zero result is (ptr << 32) | len of an
// ErrorDetail JSON document (or plain text) describing the failure.
package host
