package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// zstd encoders are expensive to create; pool them.
var zstdEncoderPool sync.Pool

// maxLZ4Ratio bounds how far an lz4 block can expand: a match length
// grows by at most 255 per extension byte.
const maxLZ4Ratio = 255

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

// newZstdDecoder returns a decoder that refuses to produce more than
// maxSize bytes, whatever the frame header claims.
func newZstdDecoder(maxSize int) (*zstd.Decoder, error) {
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(maxSize)),
	)
}

// compressBody encodes raw with c. It falls back to CompressionNone when the
// data does not shrink, and returns the compression actually applied.
func compressBody(raw []byte, c Compression) ([]byte, Compression, error) {
	if len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionZstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("persistence: lz4: %w", err)
		}
		out = buf[:n]
	default:
		return nil, 0, fmt.Errorf("persistence: unknown compression %d", c)
	}

	if len(out) == 0 || len(out) >= len(raw) {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

// decompressBody reverses compressBody. rawSize is the expected output length.
func decompressBody(body []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(body) != rawSize {
			return nil, corruptf("body is %d bytes, header says %d", len(body), rawSize)
		}
		return body, nil

	case CompressionZstd:
		if rawSize <= 0 {
			return nil, corruptf("zstd body with raw size %d", rawSize)
		}
		dec, err := newZstdDecoder(rawSize)
		if err != nil {
			return nil, fmt.Errorf("persistence: zstd: %w", err)
		}
		defer dec.Close()

		out, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, corruptf("zstd: %v", err)
		}
		if len(out) != rawSize {
			return nil, corruptf("zstd body decoded to %d bytes, header says %d", len(out), rawSize)
		}
		return out, nil

	case CompressionLZ4:
		if rawSize/maxLZ4Ratio > len(body) {
			return nil, corruptf("lz4 body of %d bytes cannot expand to %d", len(body), rawSize)
		}
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, corruptf("lz4: %v", err)
		}
		if n != rawSize {
			return nil, corruptf("lz4 body decoded to %d bytes, header says %d", n, rawSize)
		}
		return out, nil

	default:
		return nil, corruptf("unknown compression %d", c)
	}
}
