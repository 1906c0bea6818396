// Package protocol defines the appliance UDP wire protocol: envelopes,
// inner payloads, the capability/field-code table, and the Fahrenheit
// wire encoding.
//
// # Protocol Overview
//
// Every message is one JSON object per UDP datagram. Discovery is the
// only unencrypted exchange:
//
//	request:  {"t":"scan"}                       (broadcast)
//	response: {"t":"pack","i":1,"uid":0,
//	           "cid":"<mac>","tcid":"","pack":<enc>}
//
// All other traffic travels inside the outer pack envelope, whose "pack"
// field is an AES-128-ECB encrypted, base64-encoded inner JSON payload
// (see the codec package). Inner payloads carry their own "t"
// discriminator:
//
//	dev            discovery identity (decrypted with the default key)
//	bind / bindok  key-exchange handshake
//	status / dat   status poll and reply (parallel cols/dat sequences)
//	cmd / res      command and acknowledgement (parallel opt/p sequences)
//
// Inner responses carry a numeric result code "r". Only 200 is success;
// every other value is ignored without error.
//
// # Field Vocabulary
//
// The command table maps logical capability names (power, mode,
// temperature, fanSpeed, ...) to the firmware's wire field codes (Pow,
// Mod, SetTem, WdSpd, ...) and, for categorical fields, to named wire
// values. The wire strings are external protocol surface shared with the
// appliance firmware; renaming any of them breaks devices in the field.
//
// # Temperature Encoding
//
// Fahrenheit targets are carried as a rounded Celsius integer (SetTem)
// plus a fractional flag (TemRec). EncodeFahrenheit and DecodeFahrenheit
// implement the exact mapping with integer arithmetic.
//
// # Thread Safety
//
// The package is pure data and stateless constructors; everything is safe
// for concurrent use.
package protocol
