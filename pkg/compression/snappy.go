// Package compression provides the snappy payload compression used on
// gossip topics, with a hard cap on the decompressed size.
package compression

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Compressor compresses and decompresses gossip payloads.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	MaxLength() uint64
}

// SnappyCompressor implements Compressor using snappy block encoding.
type SnappyCompressor struct {
	maxLength uint64
}

// NewSnappyCompressor creates a SnappyCompressor. A maxLength of 0
// disables the decompressed-size cap.
func NewSnappyCompressor(maxLength uint64) *SnappyCompressor {
	return &SnappyCompressor{maxLength: maxLength}
}

// Compress compresses the input data.
func (s *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

// Decompress decompresses the input data, rejecting payloads whose
// decoded length exceeds the cap before allocating for them.
func (s *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	decodedLen, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get decoded length")
	}

	if s.maxLength > 0 && uint64(decodedLen) > s.maxLength {
		return nil, errors.Errorf("decompressed data exceeds max length: %d > %d", decodedLen, s.maxLength)
	}

	return snappy.Decode(nil, data)
}

// MaxLength returns the decompressed-size cap.
func (s *SnappyCompressor) MaxLength() uint64 {
	return s.maxLength
}

var _ Compressor = (*SnappyCompressor)(nil)
