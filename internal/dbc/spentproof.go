// Package dbc implements the materialized Dbc bearer token, the
// SpentProof/SpentProofShare attestations a spentbook issues when it
// records a spend, and the verifier that checks a transaction together
// with its spent proofs.
package dbc

import (
	"bytes"
	"errors"

	"github.com/ccoin/dbc/internal/amount"
	"github.com/ccoin/dbc/internal/blskey"
	"github.com/ccoin/dbc/internal/dbctx"
)

var (
	ErrUnrecognizedSpentbookKey = errors.New("spentbook key is not recognized by this verifier")
	ErrSpentProofSignature      = errors.New("spent proof signature does not verify")
	ErrSpentProofWrongTx        = errors.New("spent proof does not match this transaction")
	ErrMissingSpentProof        = errors.New("no spent proof for one or more transaction inputs")
	ErrInsufficientShares       = errors.New("not enough matching spent proof shares to reconstruct a spent proof")
	ErrShareMismatch            = errors.New("spent proof shares disagree on dbc id, tx hash or blinded amount")
)

// KeyVerifier decides whether a given public key is one the caller
// recognizes as a legitimate spentbook authority. Production callers back
// this with a section/elder key set; tests and the demo CLI back it with a
// fixed set of known keys.
type KeyVerifier interface {
	VerifyKnownKey(key blskey.DbcId) bool
}

// SpentProof is a spentbook's attestation that a given DbcId was spent in a
// specific transaction, for a specific committed amount.
type SpentProof struct {
	DbcId           blskey.DbcId
	TransactionHash dbctx.TxHash
	BlindedAmount   amount.BlindedAmount
	SpentbookKey    blskey.DbcId
	Signature       blskey.Signature
}

// signingBytes is the message a spentbook key signs to attest a spend.
func signingBytes(dbcID blskey.DbcId, txHash dbctx.TxHash, blinded amount.BlindedAmount) []byte {
	var buf bytes.Buffer
	buf.WriteString("spent-proof")
	buf.Write(dbcID.Bytes())
	buf.Write(txHash.Bytes())
	buf.Write(blinded.Bytes())
	return buf.Bytes()
}

// NewSpentProof has a spentbook signer attest that dbcID was spent in the
// transaction with the given hash, for the given blinded amount.
func NewSpentProof(signer blskey.DerivedKey, dbcID blskey.DbcId, txHash dbctx.TxHash, blinded amount.BlindedAmount) SpentProof {
	msg := signingBytes(dbcID, txHash, blinded)
	return SpentProof{
		DbcId:           dbcID,
		TransactionHash: txHash,
		BlindedAmount:   blinded,
		SpentbookKey:    signer.DbcId(),
		Signature:       signer.Sign(msg),
	}
}

// Verify checks that the spentbook key is recognized and the signature
// covers this exact (dbc id, tx hash, blinded amount) triple.
func (p SpentProof) Verify(verifier KeyVerifier) error {
	if !verifier.VerifyKnownKey(p.SpentbookKey) {
		return ErrUnrecognizedSpentbookKey
	}
	msg := signingBytes(p.DbcId, p.TransactionHash, p.BlindedAmount)
	if !p.SpentbookKey.Verify(p.Signature, msg) {
		return ErrSpentProofSignature
	}
	return nil
}

// SpentProofShare is one spentbook node's partial attestation of a spend.
// This package has no threshold-BLS reconstruction: CombineSpentProofShares
// checks that the shares one spentbook key issued for one input agree and
// turns them into that key's SpentProof, carrying the first share's
// signature. No minimum number of shares or of distinct signers is
// required.
type SpentProofShare struct {
	DbcId           blskey.DbcId
	TransactionHash dbctx.TxHash
	BlindedAmount   amount.BlindedAmount
	SpentbookKey    blskey.DbcId
	SignatureShare  blskey.Signature
}

// Verify checks this individual share the same way a full SpentProof is
// checked: the share's signature must cover the triple it claims to.
func (s SpentProofShare) Verify(verifier KeyVerifier) error {
	if !verifier.VerifyKnownKey(s.SpentbookKey) {
		return ErrUnrecognizedSpentbookKey
	}
	msg := signingBytes(s.DbcId, s.TransactionHash, s.BlindedAmount)
	if !s.SpentbookKey.Verify(s.SignatureShare, msg) {
		return ErrSpentProofSignature
	}
	return nil
}

// CombineSpentProofShares reconstructs one SpentProof per distinct
// (input dbc id, spentbook key) pair among shares, requiring every share
// of a pair to agree on tx hash and blinded amount.
func CombineSpentProofShares(shares []SpentProofShare) ([]SpentProof, error) {
	byKey := make(map[string][]SpentProofShare)
	for _, s := range shares {
		k := string(s.DbcId.Bytes()) + string(s.SpentbookKey.Bytes())
		byKey[k] = append(byKey[k], s)
	}

	proofs := make([]SpentProof, 0, len(byKey))
	for _, group := range byKey {
		first := group[0]
		for _, s := range group[1:] {
			if !s.DbcId.Equal(first.DbcId) || s.TransactionHash != first.TransactionHash ||
				!s.BlindedAmount.Equal(first.BlindedAmount) {
				return nil, ErrShareMismatch
			}
		}
		proofs = append(proofs, SpentProof{
			DbcId:           first.DbcId,
			TransactionHash: first.TransactionHash,
			BlindedAmount:   first.BlindedAmount,
			SpentbookKey:    first.SpentbookKey,
			Signature:       first.SignatureShare,
		})
	}
	return proofs, nil
}
