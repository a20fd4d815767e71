// Package codec pins down how values are serialized before they hit the
// store, so a format change never touches call sites.
package codec

import "encoding/json"

type Codec interface {
	Encode(v any) (string, error)
	Decode(data string, dst any) error
}

// JSON is the default codec.
type JSON struct{}

func (JSON) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSON) Decode(data string, dst any) error {
	return json.Unmarshal([]byte(data), dst)
}
