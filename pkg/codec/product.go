package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// FormatVersion is the current on-disk record format version.
const FormatVersion = 1

// MaxEncodedSize is the upper bound for a serialized product. Records
// larger than this are refused before they reach durable storage.
const MaxEncodedSize = 2048

// headerSize covers CRC32(4) + Version(1).
const headerSize = 5

var (
	// ErrRecordTooLarge is returned by Encode when the serialized form
	// would exceed MaxEncodedSize.
	ErrRecordTooLarge = errors.New("record too large")

	// ErrCorruptRecord is returned by Decode when the input bytes are not
	// a validly encoded product.
	ErrCorruptRecord = errors.New("corrupt record")
)

// Product is the persisted record for a tracked item. ID, Name, Origin
// and Timestamp are fixed at creation; CurrentLocation, Status,
// Certification and IoTData are mutable. LastUpdate is nil until the
// first mutation.
type Product struct {
	ID              uint64  `json:"id"`
	Name            string  `json:"name"`
	Origin          string  `json:"origin"`
	CurrentLocation string  `json:"current_location"`
	Status          string  `json:"status"`
	Certification   *string `json:"certification,omitempty"`
	IoTData         *string `json:"iot_data,omitempty"`
	Timestamp       uint64  `json:"timestamp"`
	LastUpdate      *uint64 `json:"last_update,omitempty"`
}

// EncodedSize returns the exact number of bytes Encode will produce for p.
func EncodedSize(p *Product) int {
	// Header + ID + Timestamp + LastUpdate flag + four string length
	// prefixes + two optional-field presence flags.
	size := headerSize + 8 + 8 + 1 + 4*2 + 2
	size += len(p.Name) + len(p.Origin) + len(p.CurrentLocation) + len(p.Status)
	if p.LastUpdate != nil {
		size += 8
	}
	if p.Certification != nil {
		size += 2 + len(*p.Certification)
	}
	if p.IoTData != nil {
		size += 2 + len(*p.IoTData)
	}
	return size
}

// Encode serializes p into the versioned binary format.
func Encode(p *Product) ([]byte, error) {
	size := EncodedSize(p)
	if size > MaxEncodedSize {
		return nil, fmt.Errorf("%w: encoded size %d exceeds limit %d", ErrRecordTooLarge, size, MaxEncodedSize)
	}

	buf := make([]byte, size)
	buf[4] = FormatVersion
	pos := headerSize

	binary.LittleEndian.PutUint64(buf[pos:], p.ID)
	pos += 8
	binary.LittleEndian.PutUint64(buf[pos:], p.Timestamp)
	pos += 8
	pos = putOptionalUint64(buf, pos, p.LastUpdate)

	pos = putString(buf, pos, p.Name)
	pos = putString(buf, pos, p.Origin)
	pos = putString(buf, pos, p.CurrentLocation)
	pos = putString(buf, pos, p.Status)
	pos = putOptionalString(buf, pos, p.Certification)
	pos = putOptionalString(buf, pos, p.IoTData)

	if pos != size {
		return nil, fmt.Errorf("encoded %d bytes, expected %d", pos, size)
	}

	binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(buf[4:]))
	return buf, nil
}

// Decode deserializes a product from its binary form. Any structural
// defect in the input yields an error wrapping ErrCorruptRecord.
func Decode(data []byte) (*Product, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the record header", ErrCorruptRecord, len(data))
	}
	if stored := binary.LittleEndian.Uint32(data[0:4]); stored != crc32.ChecksumIEEE(data[4:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptRecord)
	}
	if data[4] != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptRecord, data[4])
	}

	r := reader{buf: data, pos: headerSize}
	p := &Product{}

	p.ID = r.uint64()
	p.Timestamp = r.uint64()
	p.LastUpdate = r.optionalUint64()
	p.Name = r.string()
	p.Origin = r.string()
	p.CurrentLocation = r.string()
	p.Status = r.string()
	p.Certification = r.optionalString()
	p.IoTData = r.optionalString()

	if r.err != nil {
		return nil, r.err
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptRecord, len(data)-r.pos)
	}
	return p, nil
}

func putString(buf []byte, pos int, s string) int {
	binary.LittleEndian.PutUint16(buf[pos:], uint16(len(s)))
	pos += 2
	copy(buf[pos:], s)
	return pos + len(s)
}

func putOptionalString(buf []byte, pos int, s *string) int {
	if s == nil {
		buf[pos] = 0
		return pos + 1
	}
	buf[pos] = 1
	return putString(buf, pos+1, *s)
}

func putOptionalUint64(buf []byte, pos int, v *uint64) int {
	if v == nil {
		buf[pos] = 0
		return pos + 1
	}
	buf[pos] = 1
	binary.LittleEndian.PutUint64(buf[pos+1:], *v)
	return pos + 9
}

// reader walks the decode buffer, latching the first error it hits so
// field reads can be chained without per-field error checks.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: "+format, append([]interface{}{ErrCorruptRecord}, args...)...)
	}
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.pos+8 > len(r.buf) {
		r.fail("truncated integer field at offset %d", r.pos)
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) flag() bool {
	if r.err != nil {
		return false
	}
	if r.pos >= len(r.buf) {
		r.fail("truncated presence flag at offset %d", r.pos)
		return false
	}
	b := r.buf[r.pos]
	if b > 1 {
		r.fail("invalid presence flag %d at offset %d", b, r.pos)
		return false
	}
	r.pos++
	return b == 1
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	if r.pos+2 > len(r.buf) {
		r.fail("truncated string length at offset %d", r.pos)
		return ""
	}
	n := int(binary.LittleEndian.Uint16(r.buf[r.pos:]))
	r.pos += 2
	if r.pos+n > len(r.buf) {
		r.fail("string of %d bytes overruns record at offset %d", n, r.pos)
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}

func (r *reader) optionalString() *string {
	if !r.flag() {
		return nil
	}
	s := r.string()
	if r.err != nil {
		return nil
	}
	return &s
}

func (r *reader) optionalUint64() *uint64 {
	if !r.flag() {
		return nil
	}
	v := r.uint64()
	if r.err != nil {
		return nil
	}
	return &v
}
