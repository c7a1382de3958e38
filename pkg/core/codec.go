package core

import "encoding/json"

// JSONEncode serializes v for a payload crossing a process or network
// boundary. The core itself is agnostic to wire format (see spec §6); this
// is the default collaborator used by pkg/transport's ws and nats flavors.
func JSONEncode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// JSONDecode is the counterpart to JSONEncode.
func JSONDecode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
