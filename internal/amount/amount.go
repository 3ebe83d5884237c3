// Package amount implements the Pedersen-committed amounts carried by
// DBC inputs and outputs: a RevealedAmount known to its owner, and the
// BlindedAmount (commitment) that is all anyone else ever sees.
package amount

import (
	"github.com/gtank/ristretto255"

	"github.com/ccoin/dbc/internal/curve"
)

// RevealedAmount is the value and blinding factor behind a commitment.
// Only the owner of a DBC, or someone it was disclosed to, ever holds one.
type RevealedAmount struct {
	Value    uint64
	Blinding *ristretto255.Scalar
}

// NewRevealedAmount builds a revealed amount with an explicit blinding
// factor. Used when the blinding factor must be a specific value, e.g. the
// balancing output in RevealedTx.Sign.
func NewRevealedAmount(value uint64, blinding *ristretto255.Scalar) RevealedAmount {
	return RevealedAmount{Value: value, Blinding: blinding}
}

// NewRandomRevealedAmount builds a revealed amount with a random blinding
// factor.
func NewRandomRevealedAmount(value uint64) (RevealedAmount, error) {
	blinding, err := curve.RandomScalar()
	if err != nil {
		return RevealedAmount{}, err
	}
	return RevealedAmount{Value: value, Blinding: blinding}, nil
}

// BlindedAmount commits to a RevealedAmount: value*G + blinding*H.
func (r RevealedAmount) BlindedAmount() BlindedAmount {
	return BlindedAmount{Point: curve.Commit(curve.ScalarFromUint64(r.Value), r.Blinding)}
}

// BlindedAmount is the Pedersen commitment to an amount, the only form of
// the amount that is ever transmitted or stored in a DbcTransaction.
type BlindedAmount struct {
	Point *ristretto255.Element
}

// Bytes returns the canonical 32-byte compressed encoding.
func (b BlindedAmount) Bytes() []byte {
	return b.Point.Encode(nil)
}

// BlindedAmountFromBytes parses a canonical compressed encoding.
func BlindedAmountFromBytes(data []byte) (BlindedAmount, error) {
	p, err := curve.DecodeElement(data)
	if err != nil {
		return BlindedAmount{}, err
	}
	return BlindedAmount{Point: p}, nil
}

// Equal reports whether two blinded amounts are the same commitment.
func (b BlindedAmount) Equal(other BlindedAmount) bool {
	return b.Point.Equal(other.Point) == 1
}

// Add computes the commitment to the sum of the two underlying amounts.
func (b BlindedAmount) Add(other BlindedAmount) BlindedAmount {
	return BlindedAmount{Point: ristretto255.NewElement().Add(b.Point, other.Point)}
}

// Sub computes the commitment to the difference of the two underlying
// amounts.
func (b BlindedAmount) Sub(other BlindedAmount) BlindedAmount {
	return BlindedAmount{Point: ristretto255.NewElement().Subtract(b.Point, other.Point)}
}

// SumBlindedAmounts folds a slice of commitments into one via homomorphic
// addition, used to compare the total value moving in versus out of a
// transaction without learning any individual amount.
func SumBlindedAmounts(amounts []BlindedAmount) BlindedAmount {
	sum := ristretto255.NewElement().Zero()
	for _, a := range amounts {
		sum = ristretto255.NewElement().Add(sum, a.Point)
	}
	return BlindedAmount{Point: sum}
}
