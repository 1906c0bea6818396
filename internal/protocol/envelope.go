package protocol

// Wire message type discriminators. These strings are part of the
// appliance firmware's vocabulary and must not be renamed.
const (
	TypeScan   = "scan"   // unencrypted discovery broadcast
	TypePack   = "pack"   // outer envelope carrying an encrypted payload
	TypeDev    = "dev"    // discovery identity (inner)
	TypeBind   = "bind"   // bind request (inner)
	TypeBindOK = "bindok" // bind response (inner)
	TypeStatus = "status" // status poll request (inner)
	TypeDat    = "dat"    // status poll response (inner)
	TypeCmd    = "cmd"    // command request (inner)
	TypeRes    = "res"    // command response (inner)
)

// CallerID is the fixed origin identifier this controller stamps on every
// outbound pack envelope.
const CallerID = "app"

// StatusOK is the only result code treated as success. Any other value is
// silently ignored: no state mutation, no error surfaced.
const StatusOK = 200

// Sequence index values for the outer envelope. The bind request is the
// only post-discovery message sent before a device key exists.
const (
	SeqPreBind  = 1 // before a key is established
	SeqPostBind = 0 // all requests after a successful bind
)

// ScanRequest is the unencrypted discovery broadcast.
type ScanRequest struct {
	Type string `json:"t"`
}

// NewScanRequest builds the discovery broadcast envelope.
func NewScanRequest() ScanRequest {
	return ScanRequest{Type: TypeScan}
}

// Pack is the outer envelope wrapped around every encrypted payload, in
// both directions. For outbound requests CID is the fixed caller
// identifier and TCID the target device's hardware address. For inbound
// responses CID is the device's hardware address; discovery responses
// additionally leave TCID empty.
type Pack struct {
	Type string `json:"t"`
	I    int    `json:"i"`
	UID  int    `json:"uid"`
	CID  string `json:"cid"`
	TCID string `json:"tcid"`
	Pack string `json:"pack"`
}

// NewRequestPack wraps an encrypted payload in an outbound envelope
// addressed to the device with the given hardware address.
func NewRequestPack(seq int, mac string, encrypted string) Pack {
	return Pack{
		Type: TypePack,
		I:    seq,
		UID:  0,
		CID:  CallerID,
		TCID: mac,
		Pack: encrypted,
	}
}

// IsDiscoveryResponse reports whether the envelope is a reply to a scan
// broadcast: sequence index 1 with an empty destination identifier.
func (p *Pack) IsDiscoveryResponse() bool {
	return p.I == 1 && p.TCID == ""
}
