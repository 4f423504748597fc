package probe

import (
	"encoding/json"

	pion "github.com/pion/webrtc/v4"
)

// Payload is the negotiation body relayed by the coordinator. Browser peers
// send it as a JSON string holding {"sdp": ...} or {"ice": ...}.
type Payload struct {
	SDP *pion.SessionDescription `json:"sdp,omitempty"`
	ICE *pion.ICECandidateInit   `json:"ice,omitempty"`
}

// EncodePayload produces the string-wrapped form browser peers expect.
func EncodePayload(p Payload) (json.RawMessage, error) {
	inner, err := json.Marshal(p)
	if err != nil {
		return nil, NewError("encode signal", err)
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		return nil, NewError("encode signal", err)
	}
	return outer, nil
}

// DecodePayload accepts both the string-wrapped form and a bare object.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	var p Payload
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, NewError("decode signal", err)
	}
	if p.SDP == nil && p.ICE == nil {
		return Payload{}, WrapError("decode signal", ErrUnexpectedSignal, "neither sdp nor ice")
	}
	return p, nil
}
