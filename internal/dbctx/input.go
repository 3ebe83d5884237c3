package dbctx

import (
	"errors"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
)

var (
	ErrInvalidInputBlindedAmount = errors.New("input blinded amount does not match spentbook record")
	ErrInvalidSignature          = errors.New("input signature does not verify")
)

// RevealedInput is a spend authorization: the one-time secret key of a DBC
// being spent, plus the revealed amount that DBC carried. It never leaves
// the signer's process.
type RevealedInput struct {
	DerivedKey     blskey.DerivedKey
	RevealedAmount amount.RevealedAmount
}

// NewRevealedInput pairs a derived key with the revealed amount it controls.
func NewRevealedInput(key blskey.DerivedKey, revealed amount.RevealedAmount) RevealedInput {
	return RevealedInput{DerivedKey: key, RevealedAmount: revealed}
}

// DbcId returns the identity of the DBC this input spends.
func (r RevealedInput) DbcId() blskey.DbcId {
	return r.DerivedKey.DbcId()
}

// BlindedAmount commits to this input's revealed amount.
func (r RevealedInput) BlindedAmount() amount.BlindedAmount {
	return r.RevealedAmount.BlindedAmount()
}

// Sign produces the BlindedInput that goes into a signed DbcTransaction:
// the input's identity, its committed amount, and a signature over msg
// proving the caller controls the spent DBC.
func (r RevealedInput) Sign(msg []byte) BlindedInput {
	return BlindedInput{
		DbcId:         r.DbcId(),
		BlindedAmount: r.BlindedAmount(),
		Signature:     r.DerivedKey.Sign(msg),
	}
}

// BlindedInput is the form of an input that appears inside a signed
// DbcTransaction.
type BlindedInput struct {
	DbcId         blskey.DbcId
	BlindedAmount amount.BlindedAmount
	Signature     blskey.Signature
}

// Bytes returns the canonical encoding used inside DbcTransaction.Bytes.
// The signing message does not use it: it carries each input's DbcId and
// blinded amount separately, without the signature.
func (b BlindedInput) Bytes() []byte {
	out := make([]byte, 0, blskey.DbcIdSize+32+blskey.SignatureSize)
	out = append(out, b.DbcId.Bytes()...)
	out = append(out, b.BlindedAmount.Bytes()...)
	out = append(out, b.Signature.Bytes()...)
	return out
}

// Verify checks that blindedAmount matches what the spentbook or caller
// expects for this input's DBC, and that the signature over msg was
// produced by this input's DbcId.
func (b BlindedInput) Verify(msg []byte, blindedAmount amount.BlindedAmount) error {
	if !b.BlindedAmount.Equal(blindedAmount) {
		return ErrInvalidInputBlindedAmount
	}
	if !b.DbcId.Verify(b.Signature, msg) {
		return ErrInvalidSignature
	}
	return nil
}
