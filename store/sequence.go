package store

import "sophiatech.io/serialterm/codec"

// Sequence is a named, reusable byte sequence kept in its text form.
type Sequence struct {
	Name     string         `json:"name"`
	Sequence string         `json:"sequence"`
	Mode     codec.Encoding `json:"mode"`
}

// Bytes encodes the sequence text for transmission.
func (s Sequence) Bytes() ([]byte, error) {
	return codec.Encode(s.Sequence, s.Mode)
}
