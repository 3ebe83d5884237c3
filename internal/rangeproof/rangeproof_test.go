package rangeproof

import (
	"testing"

	"github.com/gtank/ristretto255"

	"github.com/ccoin/dbc/internal/curve"
)

// Test that a proof over a freshly committed value verifies.
func TestProveVerifyRoundTrip(t *testing.T) {
	blinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	value := uint64(123456789)
	commitment := curve.Commit(curve.ScalarFromUint64(value), blinding)

	proof, err := Prove(value, blinding, commitment)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	if err := Verify(commitment, proof); err != nil {
		t.Fatalf("Verify failed on a genuine proof: %v", err)
	}
}

// Test boundary values: zero and the maximum representable 64-bit value.
func TestProveVerifyBoundaryValues(t *testing.T) {
	for _, value := range []uint64{0, 1, ^uint64(0)} {
		blinding, err := curve.RandomScalar()
		if err != nil {
			t.Fatalf("RandomScalar failed: %v", err)
		}
		commitment := curve.Commit(curve.ScalarFromUint64(value), blinding)

		proof, err := Prove(value, blinding, commitment)
		if err != nil {
			t.Fatalf("Prove failed for value %d: %v", value, err)
		}
		if err := Verify(commitment, proof); err != nil {
			t.Fatalf("Verify failed for value %d: %v", value, err)
		}
	}
}

// Test that a proof does not verify against a commitment to a different
// value.
func TestVerifyRejectsWrongCommitment(t *testing.T) {
	blinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	commitment := curve.Commit(curve.ScalarFromUint64(10), blinding)
	proof, err := Prove(10, blinding, commitment)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	wrongCommitment := curve.Commit(curve.ScalarFromUint64(11), blinding)
	if err := Verify(wrongCommitment, proof); err == nil {
		t.Fatal("expected Verify to reject a proof against a mismatched commitment")
	}
}

// Test that tampering with a bit proof's response is caught.
func TestVerifyRejectsTamperedBitProof(t *testing.T) {
	blinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	value := uint64(7)
	commitment := curve.Commit(curve.ScalarFromUint64(value), blinding)
	proof, err := Prove(value, blinding, commitment)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	tampered, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	proof.BitProofs[0].Z0 = tampered

	if err := Verify(commitment, proof); err == nil {
		t.Fatal("expected Verify to reject a tampered bit proof")
	}
}

// Test that a bit proof forged without binding its nonce commitments into
// the challenge is rejected. The forger here derives the challenge the way
// an unbound transcript would (header only, no A0/A1), then solves for a
// bit proof satisfying that guessed challenge without ever opening the bit
// to 0 or 1 — exactly the attack the real transcript binding must block.
func TestVerifyRejectsUnboundForgery(t *testing.T) {
	blinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	value := uint64(42)
	commitment := curve.Commit(curve.ScalarFromUint64(value), blinding)

	proof, err := Prove(value, blinding, commitment)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	bitCommitment := proof.BitCommitments[0]

	unboundTranscript := newTranscript()
	unboundTranscript.AppendMessage([]byte("commitment"), commitment.Encode(nil))
	for i, c := range proof.BitCommitments {
		unboundTranscript.AppendMessage([]byte(bitLabel(i)), c.Encode(nil))
	}
	guessedE := challengeScalar(unboundTranscript, bitLabel(0)+"-challenge")

	e0, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	z0, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	z1, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	e1 := ristretto255.NewScalar().Subtract(guessedE, e0)

	h := curve.H()
	g := curve.G()
	a0 := fakeBranch(z0, e0, bitCommitment, h)
	stmt1 := ristretto255.NewElement().Subtract(bitCommitment, g)
	a1 := fakeBranch(z1, e1, stmt1, h)

	proof.BitProofs[0] = bitProof{A0: a0, A1: a1, E0: e0, E1: e1, Z0: z0, Z1: z1}

	if err := Verify(commitment, proof); err == nil {
		t.Fatal("expected Verify to reject a bit proof whose challenge was not bound to its own nonce commitments")
	}
}

// Test that a proof with the wrong number of bit proofs is rejected.
func TestVerifyRejectsWrongSize(t *testing.T) {
	blinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	commitment := curve.Commit(curve.ScalarFromUint64(1), blinding)
	proof, err := Prove(1, blinding, commitment)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	proof.BitProofs = proof.BitProofs[:Bits-1]

	if err := Verify(commitment, proof); err != ErrProofSize {
		t.Fatalf("expected ErrProofSize, got %v", err)
	}
}
