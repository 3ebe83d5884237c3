// Package spentbook implements SpentbookNode, the append-only double-spend
// ledger a DBC's inputs are checked against. A production network runs many
// of these behind threshold signing; this package implements the single
// node's bookkeeping algorithm, unchanged whether it is run standalone or
// as one member of a quorum.
package spentbook

import (
	"errors"
	"sync"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/dbc"
	"github.com/ccoin/dbc/internal/dbctx"
)

var (
	ErrInvalidTransactionHash = errors.New("signed spend's transaction hash does not match the transaction")
	ErrMissingAmountForDbcId  = errors.New("no recorded blinded amount for one of the transaction's inputs")
	ErrDbcAlreadySpent        = errors.New("dbc id already spent in a different transaction")
)

// SignedSpend is the statement a spender submits to a SpentbookNode: "this
// DbcId was spent in the transaction with this hash", signed by the DbcId
// itself so the spentbook can confirm the request came from the DBC's true
// owner.
type SignedSpend struct {
	DbcId         blskey.DbcId
	SpentTxHash   dbctx.TxHash
	Signature     blskey.Signature
}

// Verify checks that the signature over the claimed tx hash was produced
// by DbcId.
func (s SignedSpend) Verify() bool {
	return s.DbcId.Verify(s.Signature, s.SpentTxHash.Bytes())
}

// SpentbookNode is a single double-spend ledger: it records, for each
// DbcId ever logged as spent, the hash of the transaction that spent it,
// and indexes every blinded output ever produced so later spends can look
// up the blinded amount of the input they are spending.
type SpentbookNode struct {
	mu sync.RWMutex

	transactions      map[dbctx.TxHash]dbctx.DbcTransaction
	dbcIds            map[string]dbctx.TxHash
	outputsByInputId   map[string]dbctx.BlindedOutput
	genesisDbcId       blskey.DbcId
	genesisBlinded     amount.BlindedAmount
}

// NewSpentbookNode creates an empty ledger. genesisDbcId/genesisBlinded
// describe the one input that is allowed to spend without a prior
// recorded output — the bootstrap DBC that starts the whole system.
func NewSpentbookNode(genesisDbcId blskey.DbcId, genesisBlinded amount.BlindedAmount) *SpentbookNode {
	return &SpentbookNode{
		transactions:     make(map[dbctx.TxHash]dbctx.DbcTransaction),
		dbcIds:           make(map[string]dbctx.TxHash),
		outputsByInputId: make(map[string]dbctx.BlindedOutput),
		genesisDbcId:     genesisDbcId,
		genesisBlinded:   genesisBlinded,
	}
}

// IsSpent reports whether a DbcId has already been logged as spent.
func (s *SpentbookNode) IsSpent(id blskey.DbcId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dbcIds[string(id.Bytes())]
	return ok
}

// LogSpent records a spend, verifying the transaction against the blinded
// amounts of its inputs before it is ever admitted.
func (s *SpentbookNode) LogSpent(tx dbctx.DbcTransaction, signedSpend SignedSpend) error {
	return s.logSpentWorker(tx, signedSpend, true)
}

// LogSpentAndSkipTxVerification records a spend without verifying the
// transaction first. This is invalid in production and exists only so
// tests can exercise spentbook behavior against a deliberately malformed
// transaction.
func (s *SpentbookNode) LogSpentAndSkipTxVerification(tx dbctx.DbcTransaction, signedSpend SignedSpend) error {
	return s.logSpentWorker(tx, signedSpend, false)
}

func (s *SpentbookNode) logSpentWorker(spentTx dbctx.DbcTransaction, signedSpend SignedSpend, verifyTx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputID := signedSpend.DbcId
	txHash := spentTx.Hash()

	if txHash != signedSpend.SpentTxHash {
		return ErrInvalidTransactionHash
	}

	// The genesis DbcId is checked for every input on every call, not only
	// the first: it never gets a recorded prior output, so its blinded
	// amount always comes from the fixed genesis record instead of
	// outputsByInputId.
	blindedAmounts := make([]amount.BlindedAmount, len(spentTx.Inputs))
	for i, in := range spentTx.Inputs {
		if in.DbcId.Equal(s.genesisDbcId) {
			blindedAmounts[i] = s.genesisBlinded
			continue
		}
		out, ok := s.outputsByInputId[string(in.DbcId.Bytes())]
		if !ok {
			return ErrMissingAmountForDbcId
		}
		blindedAmounts[i] = out.BlindedAmount
	}

	if verifyTx {
		if err := spentTx.Verify(blindedAmounts); err != nil {
			return err
		}
	}

	key := string(inputID.Bytes())
	existingHash, ok := s.dbcIds[key]
	if !ok {
		s.dbcIds[key] = txHash
		existingHash = txHash
	}

	if existingHash != txHash {
		return ErrDbcAlreadySpent
	}

	if _, ok := s.transactions[txHash]; !ok {
		s.transactions[txHash] = spentTx
	}
	existingTx := s.transactions[txHash]

	for _, out := range existingTx.Outputs {
		outKey := string(out.DbcId.Bytes())
		if _, ok := s.outputsByInputId[outKey]; !ok {
			s.outputsByInputId[outKey] = out
		}
	}

	return nil
}

// Entry pairs a spent DbcId with the transaction that spent it, the shape
// Iterate yields.
type Entry struct {
	DbcId       blskey.DbcId
	Transaction dbctx.DbcTransaction
}

// Iterate returns every logged spend, in no particular order.
func (s *SpentbookNode) Iterate() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.dbcIds))
	for key, hash := range s.dbcIds {
		id, err := blskey.DbcIdFromBytes([]byte(key))
		if err != nil {
			continue
		}
		entries = append(entries, Entry{DbcId: id, Transaction: s.transactions[hash]})
	}
	return entries
}

// KeyVerifier is a dbc.KeyVerifier backed by a fixed set of spentbook
// signer keys, independent of any SpentbookNode's recorded state — used by
// the demo CLI's single-node setup.
type KeyVerifier struct {
	Known map[string]struct{}
}

// NewKeyVerifier builds a verifier that recognizes exactly the given set
// of spentbook signer keys.
func NewKeyVerifier(keys ...blskey.DbcId) *KeyVerifier {
	known := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		known[string(k.Bytes())] = struct{}{}
	}
	return &KeyVerifier{Known: known}
}

// VerifyKnownKey implements dbc.KeyVerifier.
func (v *KeyVerifier) VerifyKnownKey(key blskey.DbcId) bool {
	_, ok := v.Known[string(key.Bytes())]
	return ok
}

var _ dbc.KeyVerifier = (*KeyVerifier)(nil)
