// Package codec provides the serialization contract for tracked products.
//
// Products are encoded into a versioned, bounded binary format:
//
//	[CRC32(4)][Version(1)][ID(8)][Timestamp(8)][LastUpdate(1+8?)]
//	[Name(2+n)][Origin(2+n)][CurrentLocation(2+n)][Status(2+n)]
//	[Certification(1+2+n?)][IoTData(1+2+n?)]
//
// All integers are little-endian. Strings are length-prefixed with a
// 16-bit length. Optional fields carry a one-byte presence flag and are
// omitted entirely when absent, so record sizes are variable.
//
// The CRC32 (IEEE) checksum covers every byte after the checksum itself.
// Decode rejects any byte sequence that is truncated, carries an unknown
// format version, fails the checksum, has an invalid presence flag, or
// has trailing bytes, returning an error that wraps ErrCorruptRecord.
//
// Encoded records never exceed MaxEncodedSize. Encode refuses to produce
// a larger output and returns ErrRecordTooLarge; callers are expected to
// validate field lengths before a record ever reaches the codec, so
// hitting that error indicates a bug upstream rather than bad user input.
//
// Round-trip law: for any product p within the size bound,
// Decode(Encode(p)) reproduces a value equal to p.
package codec
