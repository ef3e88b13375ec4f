package persistence

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies navgraph index files.
	Magic = "NGX1"

	// Version is the current file format version.
	Version = 1

	// noEntryPoint marks the entry point of an empty graph.
	noEntryPoint = 0xFFFFFFFF

	// maxLayers bounds the layer count of a single node.
	maxLayers = 65
)

// FlagVectors marks a body that embeds the raw vectors after the topology.
const FlagVectors uint16 = 1 << 0

var (
	// ErrCorruptIndex is returned when persisted data fails validation.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrMissingVectors is returned when decoding an index without embedded
	// vectors and no vector store is supplied.
	ErrMissingVectors = errors.New("index has no embedded vectors and no store was given")
)

// Compression selects the body encoding.
type Compression uint8

const (
	// CompressionNone stores the body as is.
	CompressionNone Compression = 0
	// CompressionZstd compresses the body with zstd (better ratio).
	CompressionZstd Compression = 1
	// CompressionLZ4 compresses the body with lz4 block compression (faster).
	CompressionLZ4 Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "zstd" or "lz4".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// fileHeader is the fixed-size header at the start of every index file.
type fileHeader struct {
	Magic          [4]byte
	Version        uint16
	HeaderSize     uint16
	Dimension      uint32
	M              uint32
	M0             uint32
	EFConstruction uint32
	LevelMult      float64
	Metric         uint8
	Compression    uint8
	Flags          uint16
	NodeCount      uint32
	EntryPoint     uint32
	MaxLayer       int32
	BodySize       uint64
	RawSize        uint64
}

// headerSize is the encoded header length including the trailing CRC32.
const headerSize = 64 + 4

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptIndex, fmt.Sprintf(format, args...))
}
