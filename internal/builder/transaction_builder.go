// Package builder implements TransactionBuilder and DbcBuilder, the two
// staged builders that turn a set of spendable Dbcs and desired outputs
// into a signed DbcTransaction and then into materialized output Dbcs.
package builder

import (
	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/dbc"
	"github.com/ccoin/dbc/internal/dbctx"
)

// OutputOwnerMap records which OwnerOnce produced each output's one-time
// public key, so DbcBuilder can later attach owner key material to the
// right materialized Dbc.
type OutputOwnerMap map[string]blskey.OwnerOnce

func (m OutputOwnerMap) put(id blskey.DbcId, owner blskey.OwnerOnce) {
	m[string(id.Bytes())] = owner
}

func (m OutputOwnerMap) get(id blskey.DbcId) (blskey.OwnerOnce, bool) {
	o, ok := m[string(id.Bytes())]
	return o, ok
}

// TransactionBuilder accumulates the true inputs and outputs of a
// transaction before it is signed.
type TransactionBuilder struct {
	revealedTx      dbctx.RevealedTx
	outputOwnerMap  OutputOwnerMap
}

// NewTransactionBuilder returns an empty builder.
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{outputOwnerMap: make(OutputOwnerMap)}
}

// AddInput adds an input given its RevealedInput directly.
func (b *TransactionBuilder) AddInput(input dbctx.RevealedInput, srcTx dbctx.DbcTransaction) *TransactionBuilder {
	b.revealedTx.Inputs = append(b.revealedTx.Inputs, dbctx.InputHistory{Input: input, InputSrcTx: srcTx})
	return b
}

// AddInputDbc adds an input given a Dbc; its one-time spending key is
// derived from the owner base key the Dbc itself carries.
func (b *TransactionBuilder) AddInputDbc(d dbc.Dbc) (*TransactionBuilder, error) {
	input, err := d.AsRevealedInput()
	if err != nil {
		return b, err
	}
	return b.AddInput(input, d.Transaction), nil
}

// AddInputBySecrets adds an input given a raw derived key and revealed
// amount directly, without going through a materialized Dbc — used when
// the caller already knows the DBC's secrets out of band.
func (b *TransactionBuilder) AddInputBySecrets(key blskey.DerivedKey, revealed amount.RevealedAmount, srcTx dbctx.DbcTransaction) *TransactionBuilder {
	return b.AddInput(dbctx.NewRevealedInput(key, revealed), srcTx)
}

// AddOutput adds an output along with the OwnerOnce that will own it.
func (b *TransactionBuilder) AddOutput(output dbctx.Output, owner blskey.OwnerOnce) *TransactionBuilder {
	b.outputOwnerMap.put(output.DbcId, owner)
	b.revealedTx.Outputs = append(b.revealedTx.Outputs, output)
	return b
}

// AddOutputByAmount adds an output given a value and the OwnerOnce that
// will own it; the output's one-time DbcId is derived from the owner.
func (b *TransactionBuilder) AddOutputByAmount(value uint64, owner blskey.OwnerOnce) *TransactionBuilder {
	output := dbctx.NewOutput(owner.DbcId(), value)
	return b.AddOutput(output, owner)
}

// InputsAmountSum returns the sum of the revealed amounts of every input
// added so far.
func (b *TransactionBuilder) InputsAmountSum() uint64 {
	var sum uint64
	for _, h := range b.revealedTx.Inputs {
		sum += h.Input.RevealedAmount.Value
	}
	return sum
}

// OutputsAmountSum returns the sum of the amounts of every output added so
// far.
func (b *TransactionBuilder) OutputsAmountSum() uint64 {
	var sum uint64
	for _, o := range b.revealedTx.Outputs {
		sum += o.Amount
	}
	return sum
}

// Build signs the accumulated inputs and outputs and returns a DbcBuilder
// ready to be handed spent proofs.
func (b *TransactionBuilder) Build() (*DbcBuilder, error) {
	transaction, revealedOutputs, err := b.revealedTx.Sign()
	if err != nil {
		return nil, err
	}
	return newDbcBuilder(transaction, revealedOutputs, b.outputOwnerMap), nil
}
