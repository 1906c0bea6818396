package engine

import "errors"

// ErrDeviceUnavailable is returned by session getters while the device has
// missed enough status polls to be considered offline. This is the only
// error the engine surfaces across its public interface; transport and
// decode failures are logged and absorbed internally.
var ErrDeviceUnavailable = errors.New("device unavailable")

// ErrNotBound is returned when a command is issued before the bind
// handshake has produced a device key.
var ErrNotBound = errors.New("device not bound")
