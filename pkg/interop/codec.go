package interop

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// codec is shared by every strategy so argument encoding and result decoding behave the
// same no matter which runtime produced the bytes.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes v with the bridge codec.
func Marshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}

// Unmarshal decodes data with the bridge codec. A nil or empty payload is treated as null.
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		data = []byte("null")
	}
	return codec.Unmarshal(data, v)
}

// EncodeArgs renders the positional arguments as the JSON array the surface expects.
func EncodeArgs(args []any) (string, error) {
	if len(args) == 0 {
		return "[]", nil
	}
	b, err := codec.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding bridge arguments: %w", err)
	}
	return string(b), nil
}

// envelope is the shape WebBind.invoke settles with.
type envelope struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value"`
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// DecodeEnvelope unpacks the result envelope produced by the surface for identifier.
func DecodeEnvelope(identifier string, data []byte) (json.RawMessage, error) {
	var env envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding result envelope of %s: %w (payload: %s)", identifier, err, truncate(data, 256))
	}
	if !env.OK {
		se := &ScriptError{Identifier: identifier}
		if env.Error != nil {
			se.Name = env.Error.Name
			se.Message = env.Error.Message
		}
		return nil, se
	}
	if len(env.Value) == 0 {
		return json.RawMessage("null"), nil
	}
	return env.Value, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
