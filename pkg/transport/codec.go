package transport

import (
	"bytes"
	"encoding/gob"

	"github.com/fluxorio/relay/pkg/core"
)

// WireEnvelope is the cross-boundary representation of a process.Envelope
// (spec §6: "values sent across process boundaries must be serializable
// ... process handles must remain valid and routable after
// deserialization"). Values is the positional payload with any
// registry.Handle already swapped for a RouteDescriptor by the caller;
// transport never imports pkg/process or pkg/registry to keep this
// package usable standalone.
type WireEnvelope struct {
	Values []interface{}
}

// RouteDescriptor is the addressing information a process handle carries
// once it crosses an OS-process or network boundary: enough for the
// receiving node to route a Send back into the originating mailbox (spec
// §6, design note "Process handles that cross address spaces require a
// routing descriptor rather than an in-memory pointer").
type RouteDescriptor struct {
	NodeID   string `json:"node_id"`
	Identity uint64 `json:"identity"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

// EncodeGob serializes a WireEnvelope with encoding/gob, the codec the
// pipe transport (and any same-host OS-process flavor) uses (spec §6).
func EncodeGob(env WireEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGob is the counterpart to EncodeGob.
func DecodeGob(data []byte) (WireEnvelope, error) {
	var env WireEnvelope
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env)
	return env, err
}

// EncodeJSON serializes a WireEnvelope with encoding/json, the codec the
// ws and nats transports use so payloads stay inspectable on the wire.
func EncodeJSON(env WireEnvelope) ([]byte, error) {
	return core.JSONEncode(env)
}

// DecodeJSON is the counterpart to EncodeJSON.
func DecodeJSON(data []byte) (WireEnvelope, error) {
	var env WireEnvelope
	err := core.JSONDecode(data, &env)
	return env, err
}

func init() {
	// RouteDescriptor values travel inside Values when a registry.Handle
	// is part of an envelope payload; gob requires concrete types used
	// under an interface{} field to be registered.
	gob.Register(RouteDescriptor{})
}
