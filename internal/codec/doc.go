// Package codec implements the symmetric encryption used by the appliance
// wire protocol.
//
// Inner protocol payloads are JSON objects encrypted with AES-128-ECB
// (the firmware uses no initialization vector), padded with PKCS#7, and
// transported as base64 text inside the outer envelope's "pack" field.
//
// Two keys exist per device lifetime: the well-known DefaultKey, used for
// the discovery identity payload and the initial bind exchange, and the
// per-device key returned by a successful bind, used for everything after.
//
// Decryption failures are reported as *DecodeError. These are expected on
// a broadcast medium (foreign traffic, stale keys, corruption) and are
// dropped by the engine rather than surfaced to callers.
package codec
