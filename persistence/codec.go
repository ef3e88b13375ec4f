package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/navgraph/navgraph/distance"
	"github.com/navgraph/navgraph/hnsw"
	"github.com/navgraph/navgraph/vectorstore"
)

// Options configures encoding and decoding.
type Options struct {
	// Compression selects the body encoding on Encode. Ignored by Decode.
	Compression Compression

	// IncludeVectors embeds the raw vectors so the file is self-contained.
	IncludeVectors bool

	// Store supplies vectors on Decode. It takes precedence over vectors
	// embedded in the file.
	Store vectorstore.VectorStore

	// GraphOptions are runtime options passed to the rebuilt graph.
	GraphOptions []func(o *hnsw.Options)
}

// WithCompression sets the body compression.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) { o.Compression = c }
}

// WithVectors embeds the raw vectors in the encoded file.
func WithVectors() func(o *Options) {
	return func(o *Options) { o.IncludeVectors = true }
}

// WithStore makes Decode attach the graph to store.
func WithStore(store vectorstore.VectorStore) func(o *Options) {
	return func(o *Options) { o.Store = store }
}

// WithGraphOptions passes runtime options to the decoded graph.
func WithGraphOptions(optFns ...func(o *hnsw.Options)) func(o *Options) {
	return func(o *Options) { o.GraphOptions = append(o.GraphOptions, optFns...) }
}

// Encode writes g to w.
func Encode(w io.Writer, g *hnsw.Graph, optFns ...func(o *Options)) error {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	snap := g.Snapshot()
	n := len(snap.Nodes)

	var flags uint16
	var vectors vectorstore.VectorStore
	if opts.IncludeVectors {
		vectors = g.Store()
		if vectors.Count() < n {
			return fmt.Errorf("persistence: store holds %d vectors, graph has %d nodes", vectors.Count(), n)
		}
		flags |= FlagVectors
	}

	raw := encodeBody(snap, vectors)
	body, applied, err := compressBody(raw, opts.Compression)
	if err != nil {
		return err
	}

	hdr := fileHeader{
		Version:        Version,
		HeaderSize:     headerSize,
		Dimension:      uint32(snap.Params.Dimension),
		M:              uint32(snap.Params.M),
		M0:             uint32(snap.Params.M0),
		EFConstruction: uint32(snap.Params.EFConstruction),
		LevelMult:      snap.Params.LevelMultiplier,
		Metric:         uint8(snap.Params.Metric),
		Compression:    uint8(applied),
		Flags:          flags,
		NodeCount:      uint32(n),
		EntryPoint:     snap.EntryPoint,
		MaxLayer:       int32(snap.MaxLayer),
		BodySize:       uint64(len(body)),
		RawSize:        uint64(len(raw)),
	}
	copy(hdr.Magic[:], Magic)
	if n == 0 {
		hdr.EntryPoint = noEntryPoint
	}

	bw := bufio.NewWriter(w)
	cw := NewChecksumWriter(bw)
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, cw.Sum()); err != nil {
		return fmt.Errorf("persistence: write header checksum: %w", err)
	}
	if _, err := bw.Write(body); err != nil {
		return fmt.Errorf("persistence: write body: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, crc(raw)); err != nil {
		return fmt.Errorf("persistence: write body checksum: %w", err)
	}
	return bw.Flush()
}

func encodeBody(snap *hnsw.Snapshot, vectors vectorstore.VectorStore) []byte {
	size := 0
	for _, layers := range snap.Nodes {
		size += 2
		for _, list := range layers {
			size += 6 + 4*len(list)
		}
	}
	if vectors != nil {
		size += 4 * len(snap.Nodes) * snap.Params.Dimension
	}

	buf := make([]byte, 0, size)
	for _, layers := range snap.Nodes {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(layers)))
		for l, list := range layers {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(l))
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(list)))
			for _, id := range list {
				buf = binary.LittleEndian.AppendUint32(buf, id)
			}
		}
	}
	if vectors != nil {
		for id := range snap.Nodes {
			for _, x := range vectors.Get(uint32(id)) {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
			}
		}
	}
	return buf
}

// Decode reads a graph written by Encode. Any validation failure returns
// an error wrapping ErrCorruptIndex and no graph.
func Decode(r io.Reader, optFns ...func(o *Options)) (*hnsw.Graph, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	hdr, params, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	// The body grows with the bytes actually read, so a header claiming
	// more than the input holds fails without allocating the claimed size.
	body, err := io.ReadAll(io.LimitReader(r, int64(hdr.BodySize)))
	if err != nil {
		return nil, corruptf("read body: %v", err)
	}
	if uint64(len(body)) != hdr.BodySize {
		return nil, corruptf("body is %d bytes, header says %d", len(body), hdr.BodySize)
	}
	var want uint32
	if err := binary.Read(r, binary.LittleEndian, &want); err != nil {
		return nil, corruptf("read body checksum: %v", err)
	}

	raw, err := decompressBody(body, Compression(hdr.Compression), int(hdr.RawSize))
	if err != nil {
		return nil, err
	}
	if got := crc(raw); got != want {
		return nil, &ChecksumMismatchError{Section: "body", Expected: want, Actual: got}
	}

	snap, vecs, err := parseBody(raw, hdr, params)
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		if vecs == nil && len(snap.Nodes) > 0 {
			return nil, ErrMissingVectors
		}
		mem, err := vectorstore.FromVectors(params.Dimension, vecs)
		if err != nil {
			return nil, corruptf("embedded vectors: %v", err)
		}
		store = mem
	}

	g, err := hnsw.FromSnapshot(store, snap, opts.GraphOptions...)
	if err != nil {
		if errors.Is(err, hnsw.ErrInvariant) {
			return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
		}
		return nil, fmt.Errorf("persistence: %w", err)
	}
	return g, nil
}

func readHeader(r io.Reader) (*fileHeader, hnsw.Params, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, hnsw.Params{}, corruptf("read header: %v", err)
	}

	if string(buf[0:4]) != Magic {
		return nil, hnsw.Params{}, corruptf("bad magic %q", buf[0:4])
	}
	if v := binary.LittleEndian.Uint16(buf[4:6]); v != Version {
		return nil, hnsw.Params{}, corruptf("unsupported version %d", v)
	}
	if s := binary.LittleEndian.Uint16(buf[6:8]); s != headerSize {
		return nil, hnsw.Params{}, corruptf("header size %d, want %d", s, headerSize)
	}
	want := binary.LittleEndian.Uint32(buf[headerSize-4:])
	if got := crc(buf[:headerSize-4]); got != want {
		return nil, hnsw.Params{}, &ChecksumMismatchError{Section: "header", Expected: want, Actual: got}
	}

	var hdr fileHeader
	if _, err := binary.Decode(buf[:headerSize-4], binary.LittleEndian, &hdr); err != nil {
		return nil, hnsw.Params{}, corruptf("decode header: %v", err)
	}

	params := hnsw.Params{
		Dimension:       int(hdr.Dimension),
		M:               int(hdr.M),
		M0:              int(hdr.M0),
		EFConstruction:  int(hdr.EFConstruction),
		LevelMultiplier: hdr.LevelMult,
		Metric:          distance.Metric(hdr.Metric),
	}
	if err := params.Validate(); err != nil {
		return nil, hnsw.Params{}, corruptf("params: %v", err)
	}

	c := Compression(hdr.Compression)
	if c > CompressionLZ4 {
		return nil, hnsw.Params{}, corruptf("unknown compression %d", hdr.Compression)
	}
	if hdr.Flags&^FlagVectors != 0 {
		return nil, hnsw.Params{}, corruptf("unknown flags 0x%04x", hdr.Flags)
	}

	if hdr.NodeCount == 0 {
		if hdr.EntryPoint != noEntryPoint || hdr.MaxLayer != -1 {
			return nil, hnsw.Params{}, corruptf("empty graph with entry point %d, max layer %d", hdr.EntryPoint, hdr.MaxLayer)
		}
	} else if hdr.EntryPoint >= hdr.NodeCount || hdr.MaxLayer < 0 || hdr.MaxLayer >= maxLayers {
		return nil, hnsw.Params{}, corruptf("entry point %d, max layer %d for %d nodes", hdr.EntryPoint, hdr.MaxLayer, hdr.NodeCount)
	}

	bound, ok := maxBodySize(&hdr, params)
	if !ok {
		return nil, hnsw.Params{}, corruptf("size bound overflows for %d nodes", hdr.NodeCount)
	}
	if hdr.RawSize > bound {
		return nil, hnsw.Params{}, corruptf("body size %d exceeds bound %d for %d nodes", hdr.RawSize, bound, hdr.NodeCount)
	}
	switch {
	case c == CompressionNone && hdr.BodySize != hdr.RawSize:
		return nil, hnsw.Params{}, corruptf("uncompressed body size %d, raw size %d", hdr.BodySize, hdr.RawSize)
	case c != CompressionNone && hdr.BodySize >= hdr.RawSize:
		return nil, hnsw.Params{}, corruptf("compressed body size %d not below raw size %d", hdr.BodySize, hdr.RawSize)
	}

	return &hdr, params, nil
}

// maxBodySize is the largest raw body a valid header can describe. ok is
// false when the bound does not fit in an int.
func maxBodySize(hdr *fileHeader, p hnsw.Params) (uint64, bool) {
	perNode := uint64(2) + uint64(6+4*p.M0) + uint64(hdr.MaxLayer+1)*uint64(6+4*p.M)
	if hdr.Flags&FlagVectors != 0 {
		perNode += uint64(p.Dimension) * 4
	}
	hi, size := bits.Mul64(uint64(hdr.NodeCount), perNode)
	if hi != 0 || size > math.MaxInt {
		return 0, false
	}
	return size, true
}

// bodyReader is a bounds-checked cursor over the raw body.
type bodyReader struct {
	buf []byte
	off int
}

func (br *bodyReader) take(n int) ([]byte, bool) {
	if n < 0 || len(br.buf)-br.off < n {
		return nil, false
	}
	b := br.buf[br.off : br.off+n]
	br.off += n
	return b, true
}

func (br *bodyReader) uint16() (uint16, bool) {
	b, ok := br.take(2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (br *bodyReader) uint32() (uint32, bool) {
	b, ok := br.take(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func parseBody(raw []byte, hdr *fileHeader, params hnsw.Params) (*hnsw.Snapshot, [][]float32, error) {
	n := int(hdr.NodeCount)
	br := &bodyReader{buf: raw}

	snap := &hnsw.Snapshot{
		Params:     params,
		EntryPoint: hdr.EntryPoint,
		MaxLayer:   int(hdr.MaxLayer),
		Nodes:      make([][][]uint32, n),
	}
	if n == 0 {
		snap.EntryPoint = 0
	}

	for id := 0; id < n; id++ {
		layerCount, ok := br.uint16()
		if !ok {
			return nil, nil, corruptf("read node %d: truncated", id)
		}
		if layerCount == 0 || int(layerCount) > int(hdr.MaxLayer)+1 {
			return nil, nil, corruptf("read node %d: %d layers, max layer %d", id, layerCount, hdr.MaxLayer)
		}

		layers := make([][]uint32, layerCount)
		for l := range layers {
			idx, ok := br.uint16()
			if !ok {
				return nil, nil, corruptf("read node %d layer %d: truncated", id, l)
			}
			if int(idx) != l {
				return nil, nil, corruptf("read node %d: layer index %d, want %d", id, idx, l)
			}
			count, ok := br.uint32()
			if !ok {
				return nil, nil, corruptf("read node %d layer %d: truncated", id, l)
			}
			if c := params.Capacity(l); int64(count) > int64(c) {
				return nil, nil, corruptf("read node %d layer %d: %d neighbors, cap %d", id, l, count, c)
			}

			list := make([]uint32, count)
			for i := range list {
				nb, ok := br.uint32()
				if !ok {
					return nil, nil, corruptf("read node %d layer %d: truncated", id, l)
				}
				if nb >= hdr.NodeCount {
					return nil, nil, corruptf("read node %d layer %d: neighbor %d out of range", id, l, nb)
				}
				list[i] = nb
			}
			layers[l] = list
		}
		snap.Nodes[id] = layers
	}

	var vecs [][]float32
	if hdr.Flags&FlagVectors != 0 {
		d := params.Dimension
		b, ok := br.take(4 * n * d)
		if !ok {
			return nil, nil, corruptf("read vectors: truncated")
		}
		flat := make([]float32, n*d)
		for i := range flat {
			flat[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
		vecs = make([][]float32, n)
		for i := range vecs {
			vecs[i] = flat[i*d : (i+1)*d : (i+1)*d]
		}
	}

	if br.off != len(raw) {
		return nil, nil, corruptf("%d trailing bytes after body", len(raw)-br.off)
	}
	if err := snap.Check(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	return snap, vecs, nil
}

func crc(b []byte) uint32 {
	cw := NewChecksumWriter(io.Discard)
	_, _ = cw.Write(b)
	return cw.Sum()
}
