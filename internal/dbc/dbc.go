package dbc

import (
	"errors"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/dbctx"
)

var (
	ErrDbcIdNotFoundInTransaction = errors.New("dbc id not found among this transaction's outputs")
)

// Dbc is a materialized bearer token: an output of a verified
// DbcTransaction, together with everything a holder needs to spend it
// later — the owner's one-time key material, the transaction that created
// it, and the spent proofs and spent transactions of that transaction's
// inputs so a recipient can verify it without querying anyone else. Only
// this one level of history is carried; earlier transactions are not.
type Dbc struct {
	OwnerOnce              blskey.OwnerOnce
	RevealedAmount          amount.RevealedAmount
	Transaction             dbctx.DbcTransaction
	InputsSpentProofs       []SpentProof
	InputsSpentTransactions []dbctx.DbcTransaction
}

// DbcId returns this Dbc's identity: the one-time public key of its owner.
func (d Dbc) DbcId() blskey.DbcId {
	return d.OwnerOnce.DbcId()
}

// BlindedAmount returns this Dbc's committed amount.
func (d Dbc) BlindedAmount() amount.BlindedAmount {
	return d.RevealedAmount.BlindedAmount()
}

// matchingOutput locates this Dbc's BlindedOutput within its own
// transaction's outputs.
func (d Dbc) matchingOutput() (dbctx.BlindedOutput, error) {
	id := d.DbcId()
	for _, out := range d.Transaction.Outputs {
		if out.DbcId.Equal(id) {
			return out, nil
		}
	}
	return dbctx.BlindedOutput{}, ErrDbcIdNotFoundInTransaction
}

// AsRevealedInput converts this Dbc into a RevealedInput, the form needed
// to spend it as an input of a new transaction.
func (d Dbc) AsRevealedInput() (dbctx.RevealedInput, error) {
	return dbctx.NewRevealedInput(d.OwnerOnce.DerivedKey(), d.RevealedAmount), nil
}

// Verify checks that this Dbc's committed amount matches the one recorded
// in its own transaction, and then verifies that transaction together with
// the spent proofs of its inputs.
func (d Dbc) Verify(verifier KeyVerifier) error {
	out, err := d.matchingOutput()
	if err != nil {
		return err
	}
	if !out.BlindedAmount.Equal(d.BlindedAmount()) {
		return ErrInvalidInputBlindedAmount
	}
	return VerifyTransaction(verifier, d.Transaction, d.InputsSpentProofs)
}

// ErrInvalidInputBlindedAmount reuses the same sentinel semantics as
// dbctx's input-mismatch error. It is returned when a Dbc's own commitment
// differs from its transaction output, and when a spent proof's blinded
// amount differs from the input it attests.
var ErrInvalidInputBlindedAmount = errors.New("blinded amount does not match the one recorded in the transaction")

// VerifyTransaction checks tx against its spent proofs: every input must
// have a matching, independently-verifying spent proof whose recorded
// blinded amount agrees with what the transaction itself claims for that
// input, and the transaction's own balance/signature/range-proof
// invariants must hold.
func VerifyTransaction(verifier KeyVerifier, tx dbctx.DbcTransaction, proofs []SpentProof) error {
	byId := make(map[string]SpentProof, len(proofs))
	for _, p := range proofs {
		byId[string(p.DbcId.Bytes())] = p
	}

	inputAmounts := make([]amount.BlindedAmount, len(tx.Inputs))
	txHash := tx.Hash()
	for i, in := range tx.Inputs {
		proof, ok := byId[string(in.DbcId.Bytes())]
		if !ok {
			return ErrMissingSpentProof
		}
		if proof.TransactionHash != txHash {
			return ErrSpentProofWrongTx
		}
		if !proof.BlindedAmount.Equal(in.BlindedAmount) {
			return ErrInvalidInputBlindedAmount
		}
		if err := proof.Verify(verifier); err != nil {
			return err
		}
		inputAmounts[i] = proof.BlindedAmount
	}

	return tx.Verify(inputAmounts)
}
