package transport

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/golang/snappy"
)

// seal serializes v, compresses it with snappy and encrypts the result.
func (t *ChunkedTransport) seal(key []byte, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	blob, err := t.cipher.Encrypt(key, snappy.Encode(nil, raw))
	if err != nil {
		return nil, fmt.Errorf("encrypt document: %w", err)
	}
	return blob, nil
}

// open reverses seal.
func (t *ChunkedTransport) open(key, blob []byte, v any) error {
	compressed, err := t.cipher.Decrypt(key, blob)
	if err != nil {
		return fmt.Errorf("decrypt document: %w", err)
	}

	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return fmt.Errorf("malformed document: decompress: %w", err)
	}

	if err = json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed document: decode: %w", err)
	}
	return nil
}

// encodeChunks splits records into sealed chunks no larger than the chunk
// size. Ranges are first cut greedily by raw JSON size; a range whose sealed
// form still exceeds the limit is halved until it fits.
func (t *ChunkedTransport) encodeChunks(key []byte, records []json.RawMessage) ([][]byte, error) {
	var chunks [][]byte
	for _, r := range partition(records, t.chunkSize) {
		sealed, err := t.encodeRange(key, records[r.start:r.end])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sealed...)
	}
	return chunks, nil
}

func (t *ChunkedTransport) encodeRange(key []byte, records []json.RawMessage) ([][]byte, error) {
	blob, err := t.seal(key, records)
	if err != nil {
		return nil, err
	}
	if len(blob) <= t.chunkSize {
		return [][]byte{blob}, nil
	}
	if len(records) == 1 {
		return nil, fmt.Errorf("%w: %d bytes sealed, limit %d", ErrRecordTooLarge, len(blob), t.chunkSize)
	}

	mid := len(records) / 2
	left, err := t.encodeRange(key, records[:mid])
	if err != nil {
		return nil, err
	}
	right, err := t.encodeRange(key, records[mid:])
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

type indexRange struct {
	start, end int
}

// partition cuts records into consecutive ranges whose JSON array encoding
// stays within limit bytes. A single record larger than limit gets its own
// range.
func partition(records []json.RawMessage, limit int) []indexRange {
	var (
		ranges []indexRange
		start  int
		size   = 2 // "[]"
	)
	for i, r := range records {
		add := len(r) + 1 // record plus separator
		if i > start && size+add > limit {
			ranges = append(ranges, indexRange{start: start, end: i})
			start, size = i, 2
		}
		size += add
	}
	if start < len(records) {
		ranges = append(ranges, indexRange{start: start, end: len(records)})
	}
	return ranges
}
