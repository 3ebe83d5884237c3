package dbctx

import (
	"encoding/binary"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/rangeproof"
)

// Output is the public, pre-signing description of a transaction output:
// who it belongs to and how much it carries. The amount is still in the
// clear at this stage; RevealedTx.Sign blinds it before it ever leaves the
// signer.
type Output struct {
	DbcId  blskey.DbcId
	Amount uint64
}

// NewOutput constructs an Output for the given one-time public key and
// amount.
func NewOutput(id blskey.DbcId, value uint64) Output {
	return Output{DbcId: id, Amount: value}
}

// RevealedAmount returns a random RevealedAmount for this output's amount,
// used before the final balancing pass adjusts the last output's blinding
// factor.
func (o Output) RevealedAmount() (amount.RevealedAmount, error) {
	return amount.NewRandomRevealedAmount(o.Amount)
}

// RevealedOutput is an Output together with the exact RevealedAmount
// (value and blinding factor) that will be committed to on-chain.
type RevealedOutput struct {
	DbcId          blskey.DbcId
	RevealedAmount amount.RevealedAmount
}

// BlindedAmount commits to this output's revealed amount.
func (r RevealedOutput) BlindedAmount() amount.BlindedAmount {
	return r.RevealedAmount.BlindedAmount()
}

// BlindedOutput is the form of an output that appears inside a signed
// DbcTransaction: the one-time public key, the committed amount, and a
// range proof that the committed amount is non-negative and fits in 64
// bits.
type BlindedOutput struct {
	DbcId         blskey.DbcId
	BlindedAmount amount.BlindedAmount
	RangeProof    *rangeproof.Proof
}

// Bytes returns the canonical encoding used both inside DbcTransaction.Bytes
// and inside the signing message.
func (b BlindedOutput) Bytes() []byte {
	out := make([]byte, 0, blskey.DbcIdSize+32+rangeProofByteHint)
	out = append(out, b.DbcId.Bytes()...)
	out = append(out, encodeRangeProof(b.RangeProof)...)
	out = append(out, b.BlindedAmount.Bytes()...)
	return out
}

// rangeProofByteHint is only a capacity hint for Bytes, not a fixed size.
const rangeProofByteHint = 64 * (32*2 + 32*4)

func encodeRangeProof(p *rangeproof.Proof) []byte {
	var buf []byte
	buf = appendUint32(buf, uint32(len(p.BitCommitments)))
	for _, c := range p.BitCommitments {
		buf = append(buf, c.Encode(nil)...)
	}
	buf = appendUint32(buf, uint32(len(p.BitProofs)))
	for _, bp := range p.BitProofs {
		buf = append(buf, bp.A0.Encode(nil)...)
		buf = append(buf, bp.A1.Encode(nil)...)
		buf = append(buf, bp.E0.Encode(nil)...)
		buf = append(buf, bp.E1.Encode(nil)...)
		buf = append(buf, bp.Z0.Encode(nil)...)
		buf = append(buf, bp.Z1.Encode(nil)...)
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}
