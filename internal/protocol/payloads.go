package protocol

// Inner payloads carried encrypted inside the outer Pack envelope. Field
// names mirror the firmware's JSON keys exactly.

// ResponseHeader is the common prefix of every inner response payload,
// used to sniff the discriminator and result code before a full decode.
type ResponseHeader struct {
	R   int    `json:"r"`
	T   string `json:"t"`
	MAC string `json:"mac"`
}

// DeviceInfo is the decrypted discovery identity payload (t == "dev").
type DeviceInfo struct {
	Type    string `json:"t"`
	MAC     string `json:"mac"`
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Name    string `json:"name"`
	Version string `json:"ver"`
}

// BindRequest asks a device for its private key (t == "bind").
// It is the only request encrypted with the default key.
type BindRequest struct {
	Type string `json:"t"`
	UID  int    `json:"uid"`
	MAC  string `json:"mac"`
}

// NewBindRequest builds a bind request for the given hardware address.
func NewBindRequest(mac string) BindRequest {
	return BindRequest{Type: TypeBind, UID: 0, MAC: mac}
}

// BindResponse carries the per-device key (t == "bindok").
type BindResponse struct {
	R   int    `json:"r"`
	T   string `json:"t"`
	MAC string `json:"mac"`
	Key string `json:"key"`
}

// StatusRequest polls a device for the listed field codes (t == "status").
type StatusRequest struct {
	Type string   `json:"t"`
	MAC  string   `json:"mac"`
	Cols []string `json:"cols"`
}

// NewStatusRequest builds a status poll for the given columns.
func NewStatusRequest(mac string, cols []string) StatusRequest {
	return StatusRequest{Type: TypeStatus, MAC: mac, Cols: cols}
}

// StatusResponse reports current field values (t == "dat"). Cols and Dat
// are parallel sequences of equal length.
type StatusResponse struct {
	R    int      `json:"r"`
	T    string   `json:"t"`
	MAC  string   `json:"mac"`
	Cols []string `json:"cols"`
	Dat  []int    `json:"dat"`
}

// CommandRequest mutates device state (t == "cmd"). Opt and P are
// parallel sequences of field codes and values.
type CommandRequest struct {
	Type string   `json:"t"`
	Opt  []string `json:"opt"`
	P    []int    `json:"p"`
}

// NewCommandRequest builds a command payload from ordered field/value
// pairs, preserving the caller's ordering in the parallel sequences.
func NewCommandRequest(fields []FieldValue) CommandRequest {
	req := CommandRequest{
		Type: TypeCmd,
		Opt:  make([]string, 0, len(fields)),
		P:    make([]int, 0, len(fields)),
	}
	for _, fv := range fields {
		req.Opt = append(req.Opt, fv.Code)
		req.P = append(req.P, fv.Value)
	}
	return req
}

// CommandResponse acknowledges a command (t == "res"). Val carries the
// applied values; some firmware revisions omit it and only echo the
// request's P sequence.
type CommandResponse struct {
	R   int      `json:"r"`
	T   string   `json:"t"`
	MAC string   `json:"mac"`
	Opt []string `json:"opt"`
	Val []int    `json:"val"`
	P   []int    `json:"p"`
}

// Values returns the value sequence to merge into the status cache: Val
// when present, otherwise the echoed P sequence. The fallback is for the
// whole sequence only, never per element.
func (r *CommandResponse) Values() []int {
	if r.Val != nil {
		return r.Val
	}
	return r.P
}

// FieldValue pairs a wire field code with a value for a command request.
// Ordered slices stand in for the loose field-code maps of the appliance
// apps, since Go maps have no stable iteration order.
type FieldValue struct {
	Code  string
	Value int
}
