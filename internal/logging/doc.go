// Package logging provides structured logging for the breeze controller.
//
// Logging is built on go.uber.org/zap with a single global logger shared by
// all packages. By default logging is silent so CLI output stays clean;
// verbosity is enabled either explicitly via Initialize(level) or through
// the BREEZE_LOG_LEVEL environment variable (debug, info, warn, error).
//
// Beyond the generic level helpers (Info, Debug, Warn, Error, Fatal), the
// package offers protocol-aware helpers:
//
//   - LogDatagram: UDP send/receive events with payload dumps at debug level
//   - LogDeviceEvent: device lifecycle transitions keyed by hardware address
//   - LogDroppedPayload: undecryptable or malformed payloads that were
//     silently dropped by the protocol engine
//
// Dropped payloads are a normal occurrence on a broadcast medium (foreign
// devices, corrupt datagrams), so they are logged at debug level only and
// never surface as errors.
package logging
