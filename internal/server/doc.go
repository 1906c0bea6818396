// Package server bridges the UDP device engine onto HTTP and WebSocket
// for local integrations.
//
// The REST surface mirrors the engine's session table:
//
//	GET  /devices               all discovered devices
//	GET  /devices/{mac}         one device
//	POST /devices/{mac}/command send a command (202; result arrives async)
//	GET  /ws                    push stream of device snapshots
//
// Every status or command acknowledgement a device sends is pushed to
// all connected WebSocket clients as a full device snapshot. Reading a
// device over HTTP counts as observing it, so an HTTP poller keeps the
// engine's status refresh running the same way an interactive client
// does.
package server
