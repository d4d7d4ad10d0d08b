// Package fingerprint derives coarse binary fingerprints from face embedding
// vectors. Fingerprints are a cheap pre-filter: two captures of the same face
// usually share at least one fingerprint chunk, so chunk lookups narrow the
// candidate set before any exact distance computation.
package fingerprint

import (
	"math"
	"strings"
)

// BitLength is the fixed fingerprint length in bits. Embeddings with more
// dimensions are truncated, shorter ones are zero-padded, so fingerprints are
// always comparable across the system.
const BitLength = 128

// Chunking policies. Enrollment uses wider chunks (fewer, stricter pieces) to
// avoid registering near-duplicate identities; live matching uses narrower
// chunks (more, looser pieces) so a legitimate repeat sighting is not missed.
const (
	EnrollmentChunkSize = 32
	EnrollmentMaxChunks = 4

	MatchingChunkSize = 16
	MatchingMaxChunks = 8
)

// Fingerprint is a fixed-length bit-string ('0'/'1' characters) derived from
// an embedding. The string form keeps chunk lookups simple substring checks.
type Fingerprint string

// Hash computes the sign-based fingerprint of an embedding. Each dimension
// contributes one bit: '1' if the value is strictly positive, '0' otherwise.
// Deterministic and pure.
func Hash(embedding []float32) Fingerprint {
	var sb strings.Builder
	sb.Grow(BitLength)

	for i := 0; i < len(embedding) && i < BitLength; i++ {
		if embedding[i] > 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	for i := len(embedding); i < BitLength; i++ {
		sb.WriteByte('0')
	}

	return Fingerprint(sb.String())
}

// Chunks splits the fingerprint into non-overlapping substrings of chunkSize
// bits, returning at most maxChunks of them in order. A trailing remainder
// shorter than chunkSize is dropped.
func (f Fingerprint) Chunks(chunkSize, maxChunks int) []string {
	if chunkSize <= 0 || maxChunks <= 0 {
		return nil
	}

	s := string(f)
	chunks := make([]string, 0, maxChunks)
	for i := 0; i+chunkSize <= len(s) && len(chunks) < maxChunks; i += chunkSize {
		chunks = append(chunks, s[i:i+chunkSize])
	}
	return chunks
}

// EnrollmentChunks returns the precision-favoring chunking used for registry
// pre-filtering during enrollment and duplicate checks.
func (f Fingerprint) EnrollmentChunks() []string {
	return f.Chunks(EnrollmentChunkSize, EnrollmentMaxChunks)
}

// MatchingChunks returns the recall-favoring chunking used during live
// matching.
func (f Fingerprint) MatchingChunks() []string {
	return f.Chunks(MatchingChunkSize, MatchingMaxChunks)
}

// Contains reports whether any of the given chunks appears as a substring of
// the fingerprint.
func (f Fingerprint) Contains(chunks []string) bool {
	for _, c := range chunks {
		if c != "" && strings.Contains(string(f), c) {
			return true
		}
	}
	return false
}

// EuclideanDistance computes the Euclidean distance between two embeddings.
// Returns +Inf for mismatched or empty inputs so invalid pairs never clear a
// match threshold.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
