// Package persistence serializes HNSW graphs to a versioned binary format.
//
// # Format
//
// All integers are little-endian.
//
//	header  magic "NGX1" | version u16 | header size u16 | dimension u32 |
//	        M u32 | M0 u32 | efConstruction u32 | mL f64 | metric u8 |
//	        compression u8 | flags u16 | node count u32 | entry point u32 |
//	        max layer i32 | body size u64 | raw body size u64 | header CRC32
//	body    per node: layer count u16, then per layer:
//	        layer index u16 | neighbor count u32 | neighbor ids u32...
//	        followed by node count * dimension f32 when FlagVectors is set
//	trailer CRC32 of the uncompressed body
//
// The body is optionally compressed with zstd or lz4. The header is fully
// validated before any body byte is read, and a failed check anywhere
// aborts decoding with ErrCorruptIndex; no partial graph is returned.
package persistence
