package rangeproof

import (
	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"
)

// transcriptLabel is the Merlin transcript label shared by every prover and
// verifier in this module, so their transcript states start identically.
const transcriptLabel = "SN_DBC"

func newTranscript() *merlin.Transcript {
	return merlin.NewTranscript(transcriptLabel)
}

// challengeScalar derives the next Fiat-Shamir challenge from the
// transcript's current state under the given domain label.
func challengeScalar(t *merlin.Transcript, label string) *ristretto255.Scalar {
	buf := t.ChallengeBytes([]byte(label), 64)
	return ristretto255.NewScalar().FromUniformBytes(buf)
}
