package dbc

import (
	"testing"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/dbctx"
)

type fixedVerifier struct {
	known map[string]struct{}
}

func newFixedVerifier(keys ...blskey.DbcId) *fixedVerifier {
	known := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		known[string(k.Bytes())] = struct{}{}
	}
	return &fixedVerifier{known: known}
}

func (v *fixedVerifier) VerifyKnownKey(key blskey.DbcId) bool {
	_, ok := v.known[string(key.Bytes())]
	return ok
}

func randomOwnerOnce(t *testing.T) blskey.OwnerOnce {
	t.Helper()
	base, err := blskey.NewRandomOwnerBase()
	if err != nil {
		t.Fatalf("NewRandomOwnerBase failed: %v", err)
	}
	index, err := blskey.NewRandomDerivationIndex()
	if err != nil {
		t.Fatalf("NewRandomDerivationIndex failed: %v", err)
	}
	return blskey.OwnerOnce{OwnerBase: base, DerivationIndex: index}
}

// buildSpentTx constructs a single-input, single-output signed transaction
// spending inputOwner's dbc, returning the transaction and the output's
// revealed amount.
func buildSpentTx(t *testing.T, inputOwner, outputOwner blskey.OwnerOnce, value uint64) (dbctx.DbcTransaction, amount.RevealedAmount) {
	t.Helper()
	inputAmount, err := amount.NewRandomRevealedAmount(value)
	if err != nil {
		t.Fatalf("NewRandomRevealedAmount failed: %v", err)
	}
	rt := dbctx.RevealedTx{
		Inputs:  []dbctx.InputHistory{{Input: dbctx.NewRevealedInput(inputOwner.DerivedKey(), inputAmount)}},
		Outputs: []dbctx.Output{dbctx.NewOutput(outputOwner.DbcId(), value)},
	}
	tx, revealedOutputs, err := rt.Sign()
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	return tx, revealedOutputs[0].RevealedAmount
}

// Test that a transaction with a genuine spent proof from a recognized
// spentbook key verifies end to end.
func TestVerifyTransactionHappyPath(t *testing.T) {
	inputOwner := randomOwnerOnce(t)
	outputOwner := randomOwnerOnce(t)
	tx, _ := buildSpentTx(t, inputOwner, outputOwner, 77)

	spentbookBase, err := blskey.NewRandomOwnerBase()
	if err != nil {
		t.Fatalf("NewRandomOwnerBase failed: %v", err)
	}
	index, _ := blskey.NewRandomDerivationIndex()
	spentbookKey := spentbookBase.Derive(index)
	verifier := newFixedVerifier(spentbookKey.DbcId())

	inputBlindedAmount := tx.Inputs[0].BlindedAmount
	proof := NewSpentProof(spentbookKey, inputOwner.DbcId(), tx.Hash(), inputBlindedAmount)

	if err := VerifyTransaction(verifier, tx, []SpentProof{proof}); err != nil {
		t.Fatalf("VerifyTransaction failed on a genuine transaction: %v", err)
	}
}

// Test that VerifyTransaction rejects a spent proof from an unrecognized
// spentbook key.
func TestVerifyTransactionRejectsUnrecognizedKey(t *testing.T) {
	inputOwner := randomOwnerOnce(t)
	outputOwner := randomOwnerOnce(t)
	tx, _ := buildSpentTx(t, inputOwner, outputOwner, 77)

	spentbookBase, _ := blskey.NewRandomOwnerBase()
	index, _ := blskey.NewRandomDerivationIndex()
	spentbookKey := spentbookBase.Derive(index)

	// verifier only knows a different key
	otherBase, _ := blskey.NewRandomOwnerBase()
	otherIndex, _ := blskey.NewRandomDerivationIndex()
	verifier := newFixedVerifier(otherBase.Derive(otherIndex).DbcId())

	proof := NewSpentProof(spentbookKey, inputOwner.DbcId(), tx.Hash(), tx.Inputs[0].BlindedAmount)

	if err := VerifyTransaction(verifier, tx, []SpentProof{proof}); err != ErrUnrecognizedSpentbookKey {
		t.Fatalf("expected ErrUnrecognizedSpentbookKey, got %v", err)
	}
}

// Test that VerifyTransaction rejects a missing spent proof for one of the
// transaction's inputs.
func TestVerifyTransactionRejectsMissingProof(t *testing.T) {
	inputOwner := randomOwnerOnce(t)
	outputOwner := randomOwnerOnce(t)
	tx, _ := buildSpentTx(t, inputOwner, outputOwner, 77)

	spentbookBase, _ := blskey.NewRandomOwnerBase()
	index, _ := blskey.NewRandomDerivationIndex()
	verifier := newFixedVerifier(spentbookBase.Derive(index).DbcId())

	if err := VerifyTransaction(verifier, tx, nil); err != ErrMissingSpentProof {
		t.Fatalf("expected ErrMissingSpentProof, got %v", err)
	}
}

// Test CombineSpentProofShares: agreeing shares for the same spentbook key
// combine into one proof; disagreeing shares are rejected.
func TestCombineSpentProofShares(t *testing.T) {
	inputOwner := randomOwnerOnce(t)
	outputOwner := randomOwnerOnce(t)
	tx, _ := buildSpentTx(t, inputOwner, outputOwner, 10)

	spentbookBase, _ := blskey.NewRandomOwnerBase()
	index, _ := blskey.NewRandomDerivationIndex()
	spentbookKey := spentbookBase.Derive(index)

	blinded := tx.Inputs[0].BlindedAmount
	share := SpentProofShare{
		DbcId:           inputOwner.DbcId(),
		TransactionHash: tx.Hash(),
		BlindedAmount:   blinded,
		SpentbookKey:    spentbookKey.DbcId(),
		SignatureShare:  spentbookKey.Sign(signingBytes(inputOwner.DbcId(), tx.Hash(), blinded)),
	}

	proofs, err := CombineSpentProofShares([]SpentProofShare{share, share})
	if err != nil {
		t.Fatalf("CombineSpentProofShares failed on agreeing shares: %v", err)
	}
	if len(proofs) != 1 {
		t.Fatalf("expected 1 combined proof, got %d", len(proofs))
	}

	disagreeing := share
	disagreeing.BlindedAmount = amount.BlindedAmount{}
	if _, err := CombineSpentProofShares([]SpentProofShare{share, disagreeing}); err != ErrShareMismatch {
		t.Fatalf("expected ErrShareMismatch, got %v", err)
	}
}
