// Package jsoncodec is the single JSON entry point for the module. It wraps
// sonic in its stdlib-compatible configuration so payload encoding behaves
// exactly like encoding/json while keeping the faster implementation.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var codec = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return codec.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return codec.Unmarshal(data, v)
}

func Encode(w io.Writer, v any) error {
	return codec.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return codec.NewDecoder(r).Decode(v)
}
