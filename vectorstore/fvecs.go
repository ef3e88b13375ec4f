package vectorstore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrMalformedFvecs is returned when data does not follow the .fvecs layout:
// each record is a little-endian int32 dimension followed by that many float32.
var ErrMalformedFvecs = errors.New("malformed fvecs data")

// ReadFvecs reads every record from r into a Memory store. limit > 0 stops
// after that many vectors.
func ReadFvecs(r io.Reader, limit int) (*Memory, error) {
	br := bufio.NewReader(r)

	var (
		dim  = -1
		vecs [][]float32
		hdr  [4]byte
		buf  []byte
	)

	for limit <= 0 || len(vecs) < limit {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: record %d header: %v", ErrMalformedFvecs, len(vecs), err)
		}

		d := int(int32(binary.LittleEndian.Uint32(hdr[:])))
		if d <= 0 {
			return nil, fmt.Errorf("%w: record %d has dimension %d", ErrMalformedFvecs, len(vecs), d)
		}
		if dim == -1 {
			dim = d
			buf = make([]byte, 4*dim)
		} else if d != dim {
			return nil, fmt.Errorf("%w: record %d has dimension %d, want %d", ErrMalformedFvecs, len(vecs), d, dim)
		}

		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: record %d body: %v", ErrMalformedFvecs, len(vecs), err)
		}

		v := make([]float32, dim)
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
		vecs = append(vecs, v)
	}

	if dim == -1 {
		return nil, fmt.Errorf("%w: no records", ErrMalformedFvecs)
	}
	return &Memory{dim: dim, vecs: vecs}, nil
}

// WriteFvecs writes every vector of src to w in .fvecs layout.
func WriteFvecs(w io.Writer, src VectorStore) error {
	bw := bufio.NewWriter(w)
	dim := src.Dimension()
	rec := make([]byte, 4+4*dim)
	binary.LittleEndian.PutUint32(rec, uint32(dim))

	for i := 0; i < src.Count(); i++ {
		v := src.Get(uint32(i))
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has length %d, want %d", ErrWrongDimension, i, len(v), dim)
		}
		for j, x := range v {
			binary.LittleEndian.PutUint32(rec[4+4*j:], math.Float32bits(x))
		}
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}
