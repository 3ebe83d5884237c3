// Package curve provides the Ristretto255 group arithmetic and the fixed
// Pedersen generator pair shared by the amount, range-proof and transaction
// packages.
package curve

import (
	"crypto/rand"
	"errors"

	"github.com/gtank/ristretto255"
)

// Generator errors
var (
	ErrInvalidScalar  = errors.New("invalid scalar encoding")
	ErrInvalidElement = errors.New("invalid group element encoding")
)

// ScalarSize and ElementSize are the canonical encoded lengths of a
// Ristretto255 scalar and group element.
const (
	ScalarSize  = 32
	ElementSize = 32
)

var (
	// baseG is the standard Ristretto255 basepoint, used for the value term
	// of a Pedersen commitment.
	baseG = ristretto255.NewElement().Base()

	// baseH is the secondary generator for the blinding term. It is derived
	// by hashing a fixed domain string to a scalar and multiplying the
	// basepoint by it, so nobody knows log_G(H).
	baseH = deriveH()
)

func deriveH() *ristretto255.Element {
	s := ristretto255.NewScalar().FromUniformBytes(wideLabel("SN_DBC_PEDERSEN_H"))
	return ristretto255.NewElement().ScalarBaseMult(s)
}

// wideLabel stretches a short domain-separation label to the 64 bytes
// FromUniformBytes requires, by repeating it and XORing each byte with its
// position.
func wideLabel(label string) []byte {
	out := make([]byte, 64)
	for i := 0; i < 64; i++ {
		out[i] = label[i%len(label)] ^ byte(i)
	}
	return out
}

// G returns the value generator.
func G() *ristretto255.Element { return ristretto255.NewElement().Set(baseG) }

// H returns the blinding generator.
func H() *ristretto255.Element { return ristretto255.NewElement().Set(baseH) }

// RandomScalar returns a uniformly random scalar.
func RandomScalar() (*ristretto255.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, err
	}
	return ristretto255.NewScalar().FromUniformBytes(buf[:]), nil
}

// ScalarFromUint64 lifts a plain integer into a scalar.
func ScalarFromUint64(v uint64) *ristretto255.Scalar {
	var le [32]byte
	for i := 0; i < 8; i++ {
		le[i] = byte(v >> (8 * i))
	}
	s := ristretto255.NewScalar()
	if err := s.Decode(le[:]); err != nil {
		// le[:] is a valid canonical little-endian scalar encoding for any
		// uint64 value, so this cannot fail.
		panic(err)
	}
	return s
}

// DecodeScalar parses a canonical 32-byte scalar encoding.
func DecodeScalar(b []byte) (*ristretto255.Scalar, error) {
	s := ristretto255.NewScalar()
	if err := s.Decode(b); err != nil {
		return nil, ErrInvalidScalar
	}
	return s, nil
}

// DecodeElement parses a canonical 32-byte compressed group element.
func DecodeElement(b []byte) (*ristretto255.Element, error) {
	e := ristretto255.NewElement()
	if err := e.Decode(b); err != nil {
		return nil, ErrInvalidElement
	}
	return e, nil
}

// Commit computes value*G + blinding*H.
func Commit(value, blinding *ristretto255.Scalar) *ristretto255.Element {
	vg := ristretto255.NewElement().ScalarMult(value, G())
	rh := ristretto255.NewElement().ScalarMult(blinding, H())
	return ristretto255.NewElement().Add(vg, rh)
}
