package amount

import (
	"testing"

	"github.com/gtank/ristretto255"
)

// Test that BlindedAmount round-trips through its byte encoding.
func TestBlindedAmountBytesRoundTrip(t *testing.T) {
	r, err := NewRandomRevealedAmount(1234)
	if err != nil {
		t.Fatalf("NewRandomRevealedAmount failed: %v", err)
	}
	b := r.BlindedAmount()

	decoded, err := BlindedAmountFromBytes(b.Bytes())
	if err != nil {
		t.Fatalf("BlindedAmountFromBytes failed: %v", err)
	}
	if !decoded.Equal(b) {
		t.Fatal("decoded blinded amount does not match original")
	}
}

// Test that Add/Sub on blinded amounts are inverses.
func TestBlindedAmountAddSub(t *testing.T) {
	r1, _ := NewRandomRevealedAmount(100)
	r2, _ := NewRandomRevealedAmount(50)

	b1, b2 := r1.BlindedAmount(), r2.BlindedAmount()
	sum := b1.Add(b2)
	back := sum.Sub(b2)

	if !back.Equal(b1) {
		t.Fatal("Sub did not invert Add")
	}
}

// Test that SumBlindedAmounts of a transaction's balanced inputs and
// outputs agree, the way DbcTransaction.Verify requires.
func TestSumBlindedAmountsBalances(t *testing.T) {
	in1, err := NewRandomRevealedAmount(60)
	if err != nil {
		t.Fatalf("NewRandomRevealedAmount failed: %v", err)
	}
	in2, err := NewRandomRevealedAmount(40)
	if err != nil {
		t.Fatalf("NewRandomRevealedAmount failed: %v", err)
	}

	blindingSum := ristretto255.NewScalar().Add(in1.Blinding, in2.Blinding)
	out := NewRevealedAmount(100, blindingSum)

	inSum := SumBlindedAmounts([]BlindedAmount{in1.BlindedAmount(), in2.BlindedAmount()})
	outSum := SumBlindedAmounts([]BlindedAmount{out.BlindedAmount()})

	if !inSum.Equal(outSum) {
		t.Fatal("input and output blinded amount sums should match when blinding factors balance")
	}
}
