package persistence

import (
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// CRC32 (IEEE) detects accidental corruption only; it is not tamper-proof.
var crcTable = crc32.MakeTable(crc32.IEEE)

// ChecksumWriter wraps an io.Writer and computes a running CRC32 checksum.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

// NewChecksumWriter creates a new checksumming writer.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{
		w:    w,
		hash: crc32.New(crcTable),
	}
}

// Write implements io.Writer.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	cw.hash.Write(p) // never fails
	return cw.w.Write(p)
}

// Sum returns the current checksum value.
func (cw *ChecksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// ChecksumReader wraps an io.Reader and computes a running CRC32 checksum.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash32
}

// NewChecksumReader creates a new checksumming reader.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{
		r:    r,
		hash: crc32.New(crcTable),
	}
}

// Read implements io.Reader.
func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the current checksum value.
func (cr *ChecksumReader) Sum() uint32 {
	return cr.hash.Sum32()
}

// Verify checks if the computed checksum matches the expected value.
func (cr *ChecksumReader) Verify(expected uint32) error {
	if actual := cr.Sum(); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// ChecksumMismatchError is returned when checksum verification fails.
// It matches ErrCorruptIndex with errors.Is.
type ChecksumMismatchError struct {
	Section  string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s checksum mismatch: expected 0x%08x, got 0x%08x", e.Section, e.Expected, e.Actual)
}

// Is reports ErrCorruptIndex as a match.
func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrCorruptIndex
}

// IsChecksumMismatch returns true if err is or wraps a checksum mismatch error.
func IsChecksumMismatch(err error) bool {
	var cm *ChecksumMismatchError
	return errors.As(err, &cm)
}
