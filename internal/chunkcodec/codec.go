package chunkcodec

import (
	"encoding/base64"
	"fmt"

	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
)

// DefaultMaxChunkChars keeps each encoded chunk well under the backing
// store's per-record ceiling. Callers targeting a different store should
// pick their own bound instead of reusing this one.
const DefaultMaxChunkChars = 500000

// Encode base64-encodes data and splits the result into ordered payloads of
// at most maxChunkChars characters. The bound is rounded down to a multiple
// of four so that no base64 quantum is split across a chunk boundary; a
// chunk is never decodable on its own, only the concatenation is.
func Encode(data []byte, maxChunkChars int) ([]string, error) {
	if maxChunkChars < 4 {
		return nil, fmt.Errorf("%w: chunk size %d too small", appErr.ErrInvalid, maxChunkChars)
	}
	step := maxChunkChars - maxChunkChars%4
	encoded := base64.StdEncoding.EncodeToString(data)
	if encoded == "" {
		return []string{}, nil
	}
	chunks := make([]string, 0, (len(encoded)+step-1)/step)
	for start := 0; start < len(encoded); start += step {
		end := start + step
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, encoded[start:end])
	}
	return chunks, nil
}

// Decode concatenates payloads in the given order and decodes the whole
// sequence once.
func Decode(payloads []string) ([]byte, error) {
	total := 0
	for _, p := range payloads {
		total += len(p)
	}
	joined := make([]byte, 0, total)
	for _, p := range payloads {
		joined = append(joined, p...)
	}
	data, err := base64.StdEncoding.DecodeString(string(joined))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrCorruptChunkSequence, err)
	}
	return data, nil
}

// ChunkCount reports how many chunks Encode produces for rawLen input bytes.
func ChunkCount(rawLen int, maxChunkChars int) int {
	if rawLen <= 0 {
		return 0
	}
	step := maxChunkChars - maxChunkChars%4
	encodedLen := base64.StdEncoding.EncodedLen(rawLen)
	return (encodedLen + step - 1) / step
}
