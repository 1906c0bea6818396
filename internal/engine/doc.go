// Package engine implements the device protocol engine: discovery,
// bind handshake, status polling, and command dispatch for
// climate-control appliances over an unreliable encrypted UDP channel.
//
// # Architecture
//
// One Controller per process owns a single UDP socket, broadcasts
// discovery requests, and demultiplexes every inbound datagram by the
// envelope's source identifier. Each discovered device gets exactly one
// Session, a state machine that advances
//
//	UNBOUND -> BOUND_UNAVAILABLE <-> BOUND_AVAILABLE
//
// and never terminates: sessions live until the process exits.
//
// # Session lifecycle
//
//  1. Creation sends a bind request under the well-known default key.
//  2. A successful bindok stores the per-device key (exactly once) and
//     starts the refresh loop.
//  3. Each refresh tick polls status, but only while a consumer has read
//     the cached status within the last five seconds; idle devices
//     generate no traffic.
//  4. Five status requests without a reply mark the device unavailable;
//     a single successful reply clears the condition and resets the
//     counter.
//  5. Commands are fire-and-forget; their acknowledgements update the
//     cache asynchronously.
//
// # Failure handling
//
// There are no per-request timeouts and no retries beyond the next
// scheduled tick. A lost response simply never mutates state and is
// accounted for by the missed-response counter. Decryption failures,
// rejected responses (result code other than 200), and traffic for
// unknown devices are dropped silently. The only error that crosses the
// engine boundary is ErrDeviceUnavailable.
//
// # Concurrency
//
// The receive loop, the scanner, every session's refresh ticker, and
// command callers all share the socket; net.UDPConn write safety covers
// concurrent sends. Session state is guarded by a per-session mutex and
// the session table by a controller mutex; sessions share no state with
// each other.
package engine
