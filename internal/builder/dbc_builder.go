package builder

import (
	"errors"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/dbc"
	"github.com/ccoin/dbc/internal/dbctx"
)

var (
	ErrPublicKeyNotFound      = errors.New("no owner registered for one of the transaction's outputs")
	ErrMissingSpentTransaction = errors.New("no spent transaction recorded for one of the spent proofs")
	ErrRevealedAmountNotFound = errors.New("no matching revealed amount for one of the transaction's outputs")
	ErrRevealedAmountNotUnique = errors.New("more than one revealed amount matches one of the transaction's outputs")
)

// DbcBuilder aggregates the spent proofs (or shares of them) and the spent
// transactions of a signed DbcTransaction's inputs, then materializes the
// final output Dbcs.
type DbcBuilder struct {
	transaction      dbctx.DbcTransaction
	revealedOutputs  []dbctx.RevealedOutput
	outputOwnerMap   OutputOwnerMap
	spentProofs      map[string]dbc.SpentProof
	spentProofShares []dbc.SpentProofShare
	spentTransactions map[dbctx.TxHash]dbctx.DbcTransaction
}

func newDbcBuilder(transaction dbctx.DbcTransaction, revealedOutputs []dbctx.RevealedOutput, owners OutputOwnerMap) *DbcBuilder {
	return &DbcBuilder{
		transaction:       transaction,
		revealedOutputs:   revealedOutputs,
		outputOwnerMap:    owners,
		spentProofs:       make(map[string]dbc.SpentProof),
		spentTransactions: make(map[dbctx.TxHash]dbctx.DbcTransaction),
	}
}

// Transaction returns the signed transaction this builder is assembling
// proofs for.
func (b *DbcBuilder) Transaction() dbctx.DbcTransaction {
	return b.transaction
}

// AddSpentProof records a complete spent proof for one of the
// transaction's inputs.
func (b *DbcBuilder) AddSpentProof(proof dbc.SpentProof) *DbcBuilder {
	b.spentProofs[string(proof.DbcId.Bytes())] = proof
	return b
}

// AddSpentProofShare records a partial spent proof; Build combines the
// shares each spentbook key gave for a given input into a full SpentProof
// automatically. A single share is enough: no threshold of distinct
// signers is required.
func (b *DbcBuilder) AddSpentProofShare(share dbc.SpentProofShare) *DbcBuilder {
	b.spentProofShares = append(b.spentProofShares, share)
	return b
}

// AddSpentTransaction records a transaction in which inputs were spent;
// Build requires one recorded for the transaction hash of every spent
// proof, which is the hash of the transaction being built.
func (b *DbcBuilder) AddSpentTransaction(tx dbctx.DbcTransaction) *DbcBuilder {
	b.spentTransactions[tx.Hash()] = tx
	return b
}

// spentProofsReady combines any pending shares and returns the full set of
// spent proofs collected so far.
func (b *DbcBuilder) spentProofsReady() ([]dbc.SpentProof, error) {
	combined, err := dbc.CombineSpentProofShares(b.spentProofShares)
	if err != nil {
		return nil, err
	}

	proofs := make([]dbc.SpentProof, 0, len(b.spentProofs)+len(combined))
	for _, p := range b.spentProofs {
		proofs = append(proofs, p)
	}
	proofs = append(proofs, combined...)
	return proofs, nil
}

// Build verifies the transaction together with its spent proofs, then
// materializes and returns the output Dbcs.
func (b *DbcBuilder) Build(verifier dbc.KeyVerifier) ([]MaterializedDbc, error) {
	spentProofs, err := b.spentProofsReady()
	if err != nil {
		return nil, err
	}

	if err := dbc.VerifyTransaction(verifier, b.transaction, spentProofs); err != nil {
		return nil, err
	}

	for _, p := range spentProofs {
		if _, ok := b.spentTransactions[p.TransactionHash]; !ok {
			return nil, ErrMissingSpentTransaction
		}
	}

	return b.buildOutputDbcs(spentProofs)
}

// BuildWithoutVerifying materializes the output Dbcs without verifying the
// transaction or its spent proofs, for callers that have already verified
// them (or are constructing test fixtures).
func (b *DbcBuilder) BuildWithoutVerifying() ([]MaterializedDbc, error) {
	spentProofs, err := b.spentProofsReady()
	if err != nil {
		return nil, err
	}
	return b.buildOutputDbcs(spentProofs)
}

// MaterializedDbc pairs a freshly-built Dbc with the owner key material
// and revealed amount that produced it.
type MaterializedDbc struct {
	Dbc            dbc.Dbc
	OwnerOnce      blskey.OwnerOnce
	RevealedAmount amount.RevealedAmount
}

func (b *DbcBuilder) buildOutputDbcs(spentProofs []dbc.SpentProof) ([]MaterializedDbc, error) {
	spentTxs := make([]dbctx.DbcTransaction, 0, len(b.spentTransactions))
	for _, tx := range b.spentTransactions {
		spentTxs = append(spentTxs, tx)
	}

	revealedByAmount := make(map[string]amount.RevealedAmount, len(b.revealedOutputs))
	for _, r := range b.revealedOutputs {
		key := string(r.RevealedAmount.BlindedAmount().Bytes())
		if _, dup := revealedByAmount[key]; dup {
			// Two revealed amounts share one commitment, so the output
			// carrying it matches more than one: a construction bug.
			panic(ErrRevealedAmountNotUnique)
		}
		revealedByAmount[key] = r.RevealedAmount
	}

	result := make([]MaterializedDbc, 0, len(b.transaction.Outputs))
	for _, out := range b.transaction.Outputs {
		owner, ok := b.outputOwnerMap.get(out.DbcId)
		if !ok {
			return nil, ErrPublicKeyNotFound
		}

		revealed, ok := revealedByAmount[string(out.BlindedAmount.Bytes())]
		if !ok {
			// This is a construction bug, not a runtime condition a caller
			// can recover from: every transaction output must have exactly
			// one matching revealed amount from signing.
			panic(ErrRevealedAmountNotFound)
		}

		result = append(result, MaterializedDbc{
			Dbc: dbc.Dbc{
				OwnerOnce:               owner,
				RevealedAmount:          revealed,
				Transaction:             b.transaction,
				InputsSpentProofs:       spentProofs,
				InputsSpentTransactions: spentTxs,
			},
			OwnerOnce:      owner,
			RevealedAmount: revealed,
		})
	}

	return result, nil
}
