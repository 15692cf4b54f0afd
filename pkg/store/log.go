package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ssargent/njord/pkg/codec"
	"github.com/ssargent/njord/pkg/region"
)

// Log entry format, little-endian:
//
//	[CRC32(4)][Flags(1)][ID(8)][ValueLen(4)][Value]
//
// The CRC covers everything after the checksum. A tombstone entry has
// the tombstone flag set and an empty value.
const entryHeaderSize = 17

const flagTombstone byte = 0x01

type logEntry struct {
	id    uint64
	flags byte
	value []byte
}

func (e *logEntry) tombstone() bool {
	return e.flags&flagTombstone != 0
}

// appendEntry writes one entry at the end of the region and syncs it to
// disk before returning the entry's start offset.
func appendEntry(r *region.Region, id uint64, flags byte, value []byte) (int64, error) {
	buf := make([]byte, entryHeaderSize+len(value))
	buf[4] = flags
	binary.LittleEndian.PutUint64(buf[5:], id)
	binary.LittleEndian.PutUint32(buf[13:], uint32(len(value)))
	copy(buf[entryHeaderSize:], value)
	binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(buf[4:]))

	offset, err := r.Append(buf)
	if err != nil {
		return 0, fmt.Errorf("append log entry: %w", err)
	}
	if err := r.Sync(); err != nil {
		return 0, fmt.Errorf("sync log entry: %w", err)
	}
	return offset, nil
}

// readEntryAt reads the entry starting at offset and returns it along
// with the offset of the next entry. Short reads, implausible lengths
// and checksum mismatches all surface as ErrCorruption.
func readEntryAt(r *region.Region, offset int64) (*logEntry, int64, error) {
	header := make([]byte, entryHeaderSize)
	if _, err := r.ReadAt(header, offset); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, ErrCorruption
		}
		return nil, 0, err
	}

	valueLen := binary.LittleEndian.Uint32(header[13:17])
	if valueLen > codec.MaxEncodedSize {
		return nil, 0, ErrCorruption
	}

	buf := make([]byte, entryHeaderSize+int(valueLen))
	copy(buf, header)
	if valueLen > 0 {
		if _, err := r.ReadAt(buf[entryHeaderSize:], offset+entryHeaderSize); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, 0, ErrCorruption
			}
			return nil, 0, err
		}
	}

	if binary.LittleEndian.Uint32(buf[0:4]) != crc32.ChecksumIEEE(buf[4:]) {
		return nil, 0, ErrCorruption
	}

	entry := &logEntry{
		id:    binary.LittleEndian.Uint64(buf[5:13]),
		flags: buf[4],
		value: buf[entryHeaderSize:],
	}
	return entry, offset + int64(len(buf)), nil
}
