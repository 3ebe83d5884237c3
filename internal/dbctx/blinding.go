package dbctx

import (
	"github.com/gtank/ristretto255"

	"github.com/ccoin/dbc/internal/amount"
)

func sumBlindingFactors(amounts []amount.RevealedAmount) *ristretto255.Scalar {
	sum := ristretto255.NewScalar().Zero()
	for _, a := range amounts {
		sum = ristretto255.NewScalar().Add(sum, a.Blinding)
	}
	return sum
}

func sumRevealedBlindingFactors(outputs []RevealedOutput) *ristretto255.Scalar {
	sum := ristretto255.NewScalar().Zero()
	for _, o := range outputs {
		sum = ristretto255.NewScalar().Add(sum, o.RevealedAmount.Blinding)
	}
	return sum
}

func scalarSub(a, b *ristretto255.Scalar) *ristretto255.Scalar {
	return ristretto255.NewScalar().Subtract(a, b)
}
