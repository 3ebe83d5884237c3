// Package dbctx implements the DBC transaction core: the revealed and
// blinded forms of inputs and outputs, the canonical byte encodings used
// for both signing and hashing, and the signing and verification
// operations that tie a DbcTransaction to the inputs it spends.
package dbctx

import (
	"bytes"
	"errors"

	"golang.org/x/crypto/sha3"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/rangeproof"
)

// Transaction errors
var (
	ErrMissingTxInputs            = errors.New("transaction has no inputs")
	ErrDbcIdNotUniqueAcrossInputs = errors.New("duplicate dbc id across transaction inputs")
	ErrInconsistentTransaction    = errors.New("input and output blinded amounts do not balance")
	ErrRangeProofInvalid          = errors.New("output range proof failed to verify")
)

// TxHash is the 32-byte SHA3-256 hash that uniquely identifies a
// DbcTransaction.
type TxHash [32]byte

// Hash is an alias of TxHash for general-purpose 32-byte content hashes.
type Hash = TxHash

// Bytes returns the hash as a byte slice.
func (h TxHash) Bytes() []byte { return h[:] }

// DbcTransaction is the signed, fully-blinded transaction that gets
// recorded in the spentbook: its inputs authorize spending specific DBCs,
// and its outputs create new ones.
type DbcTransaction struct {
	Inputs  []BlindedInput
	Outputs []BlindedOutput
}

// Bytes is the canonical framed encoding of the transaction, used to
// compute its hash. Framing labels are appended as literal ASCII so the
// boundaries between sections can never be ambiguous.
func (tx DbcTransaction) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("inputs")
	for _, in := range tx.Inputs {
		buf.Write(in.Bytes())
	}
	buf.WriteString("outputs")
	for _, out := range tx.Outputs {
		buf.Write(out.Bytes())
	}
	buf.WriteString("end")
	return buf.Bytes()
}

// Hash computes the SHA3-256 hash of the transaction's canonical encoding.
func (tx DbcTransaction) Hash() TxHash {
	return sha3.Sum256(tx.Bytes())
}

// Equal reports whether two transactions hash identically.
func (tx DbcTransaction) Equal(other DbcTransaction) bool {
	return tx.Hash() == other.Hash()
}

// Less gives DbcTransaction a total order by hash, mirroring the Ord the
// Rust original derives so transactions can be used as BTree/sorted-set
// keys.
func (tx DbcTransaction) Less(other DbcTransaction) bool {
	a, b := tx.Hash(), other.Hash()
	return bytes.Compare(a[:], b[:]) < 0
}

// SigningMessage reconstructs the exact byte message each input's
// signature was made over. It must produce byte-identical output to the
// message RevealedTx.Sign signs, since the verifier here never sees the
// signer's revealed amounts or blinding factors directly.
func (tx DbcTransaction) SigningMessage() []byte {
	ids := make([]blskey.DbcId, len(tx.Inputs))
	inputAmounts := make([]amount.BlindedAmount, len(tx.Inputs))
	for i, in := range tx.Inputs {
		ids[i] = in.DbcId
		inputAmounts[i] = in.BlindedAmount
	}
	return signingMessage(ids, inputAmounts, tx.Outputs)
}

// Verify checks that every input's signature covers this transaction, that
// the caller's view of each input's committed amount matches what was
// signed, that input DbcIds are unique, that every output's range proof
// holds, and that the sum of input amounts equals the sum of output
// amounts — all without learning any amount.
func (tx DbcTransaction) Verify(inputBlindedAmounts []amount.BlindedAmount) error {
	msg := tx.SigningMessage()
	for i, in := range tx.Inputs {
		if err := in.Verify(msg, inputBlindedAmounts[i]); err != nil {
			return err
		}
	}

	if len(tx.Inputs) == 0 {
		return ErrMissingTxInputs
	}

	seen := make(map[string]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		key := string(in.DbcId.Bytes())
		if _, ok := seen[key]; ok {
			return ErrDbcIdNotUniqueAcrossInputs
		}
		seen[key] = struct{}{}
	}

	for _, out := range tx.Outputs {
		if err := rangeproof.Verify(out.BlindedAmount.Point, out.RangeProof); err != nil {
			return ErrRangeProofInvalid
		}
	}

	inputSum := amount.SumBlindedAmounts(tx.inputAmounts())
	outputSum := amount.SumBlindedAmounts(tx.outputAmounts())
	if !inputSum.Equal(outputSum) {
		return ErrInconsistentTransaction
	}

	return nil
}

func (tx DbcTransaction) inputAmounts() []amount.BlindedAmount {
	out := make([]amount.BlindedAmount, len(tx.Inputs))
	for i, in := range tx.Inputs {
		out[i] = in.BlindedAmount
	}
	return out
}

func (tx DbcTransaction) outputAmounts() []amount.BlindedAmount {
	out := make([]amount.BlindedAmount, len(tx.Outputs))
	for i, o := range tx.Outputs {
		out[i] = o.BlindedAmount
	}
	return out
}

// InputHistory pairs a RevealedInput with the transaction that created the
// DBC it spends. RevealedTx.Sign carries InputSrcTx along but does not
// check the input against it.
type InputHistory struct {
	Input       RevealedInput
	InputSrcTx  DbcTransaction
}

// DbcId returns the identity of the DBC this input history's input spends.
func (h InputHistory) DbcId() blskey.DbcId {
	return h.Input.DbcId()
}

// RevealedTx is the not-yet-signed description of a transaction: the true
// inputs (with their revealed amounts) and the true outputs (with their
// plaintext amounts). Signing blinds everything.
type RevealedTx struct {
	Inputs  []InputHistory
	Outputs []Output
}

// InputIds returns the DbcIds of every input, in order.
func (rt RevealedTx) InputIds() []blskey.DbcId {
	ids := make([]blskey.DbcId, len(rt.Inputs))
	for i, h := range rt.Inputs {
		ids[i] = h.DbcId()
	}
	return ids
}

func (rt RevealedTx) revealedInputAmounts() []amount.RevealedAmount {
	out := make([]amount.RevealedAmount, len(rt.Inputs))
	for i, h := range rt.Inputs {
		out[i] = h.Input.RevealedAmount
	}
	return out
}

func (rt RevealedTx) blindedInputAmounts() []amount.BlindedAmount {
	out := make([]amount.BlindedAmount, len(rt.Inputs))
	for i, h := range rt.Inputs {
		out[i] = h.Input.BlindedAmount()
	}
	return out
}

// Sign produces the signed DbcTransaction along with the RevealedOutputs
// the caller needs to later construct the materialized output Dbcs. The
// blinding factor of the final output is adjusted so the summed blinding
// factors of inputs and outputs match exactly; when the summed amounts
// also match, this makes the summed BlindedAmounts of inputs and outputs
// equal too, letting anyone verify value conservation without learning any
// individual amount. Sign does not check that the amounts balance; an
// unbalanced transaction signs but fails Verify.
func (rt RevealedTx) Sign() (DbcTransaction, []RevealedOutput, error) {
	revealedInputAmounts := rt.revealedInputAmounts()
	inputAmounts := rt.blindedInputAmounts()

	adjustedOutputs, err := rt.adjustedRevealedOutputs(revealedInputAmounts)
	if err != nil {
		return DbcTransaction{}, nil, err
	}

	blindedOutputs, err := rt.blindedOutputs(adjustedOutputs)
	if err != nil {
		return DbcTransaction{}, nil, err
	}

	msg := signingMessage(rt.InputIds(), inputAmounts, blindedOutputs)

	blindedInputs := make([]BlindedInput, len(rt.Inputs))
	for i, h := range rt.Inputs {
		blindedInputs[i] = h.Input.Sign(msg)
	}

	return DbcTransaction{Inputs: blindedInputs, Outputs: blindedOutputs}, adjustedOutputs, nil
}

// adjustedRevealedOutputs gives every output but the last a random blinding
// factor, then sets the last output's blinding factor to whatever value
// makes the summed output blinding factors equal the summed input blinding
// factors.
func (rt RevealedTx) adjustedRevealedOutputs(revealedInputAmounts []amount.RevealedAmount) ([]RevealedOutput, error) {
	if len(rt.Outputs) == 0 {
		return nil, nil
	}

	revealedOutputs := make([]RevealedOutput, 0, len(rt.Outputs))
	for _, out := range rt.Outputs[:len(rt.Outputs)-1] {
		revealed, err := out.RevealedAmount()
		if err != nil {
			return nil, err
		}
		revealedOutputs = append(revealedOutputs, RevealedOutput{DbcId: out.DbcId, RevealedAmount: revealed})
	}

	inputBlindingSum := sumBlindingFactors(revealedInputAmounts)
	outputBlindingSum := sumRevealedBlindingFactors(revealedOutputs)
	correction := scalarSub(inputBlindingSum, outputBlindingSum)

	last := rt.Outputs[len(rt.Outputs)-1]
	revealedOutputs = append(revealedOutputs, RevealedOutput{
		DbcId:          last.DbcId,
		RevealedAmount: amount.NewRevealedAmount(last.Amount, correction),
	})

	return revealedOutputs, nil
}

func (rt RevealedTx) blindedOutputs(revealedOutputs []RevealedOutput) ([]BlindedOutput, error) {
	blinded := make([]BlindedOutput, len(revealedOutputs))
	for i, r := range revealedOutputs {
		blindedAmount := r.RevealedAmount.BlindedAmount()
		proof, err := rangeproof.Prove(r.RevealedAmount.Value, r.RevealedAmount.Blinding, blindedAmount.Point)
		if err != nil {
			return nil, err
		}
		blinded[i] = BlindedOutput{DbcId: r.DbcId, BlindedAmount: blindedAmount, RangeProof: proof}
	}
	return blinded, nil
}

// signingMessage is shared byte-for-byte between RevealedTx.Sign and
// DbcTransaction.SigningMessage — they must produce identical output given
// the same logical inputs, or every signature would fail to verify.
func signingMessage(ids []blskey.DbcId, inputAmounts []amount.BlindedAmount, blindedOutputs []BlindedOutput) []byte {
	var buf bytes.Buffer
	buf.WriteString("dbc_ids")
	for _, id := range ids {
		buf.Write(id.Bytes())
	}
	buf.WriteString("input_amounts")
	for _, a := range inputAmounts {
		buf.Write(a.Bytes())
	}
	buf.WriteString("blinded_outputs")
	for _, o := range blindedOutputs {
		buf.Write(o.Bytes())
	}
	return buf.Bytes()
}
