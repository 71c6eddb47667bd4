// Package api defines the lingostake.v1 wire messages. Messages are plain
// Go structs carried by Connect over a JSON codec; amounts travel as decimal
// strings in the token's smallest unit.
package api

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// CodecName replaces Connect's default protobuf JSON codec.
const CodecName = "json"

// Codec marshals messages with encoding/json.
type Codec struct{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// ParseAmount parses a non-negative decimal amount.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// FormatAmount renders an amount, treating nil as zero.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
