package fsp

import (
	"encoding/binary"

	"github.com/nxemu/fspsrv/internal/backend"
)

// Directory read responses carry fixed-size packed entry records copied
// verbatim into the caller's output buffer, never reordered. The record
// layout is part of the wire contract:
//
//	0x000  name, zero-terminated, zero-padded   0x300 bytes
//	0x300  entry type (0 directory, 1 file)     1 byte
//	0x301  padding                              7 bytes
//	0x308  file size, little-endian             8 bytes
const (
	// EntryNameSize is the fixed name field size including the terminator.
	EntryNameSize = 0x300

	// EntryRecordSize is the total packed record size. The caller's output
	// buffer capacity divided by this size determines the maximum entries a
	// directory read returns.
	EntryRecordSize = 0x310
)

// appendEntryRecord packs one directory entry onto dst. Names longer than
// the field are truncated; the terminator byte is always present.
func appendEntryRecord(dst []byte, e backend.Entry) []byte {
	var record [EntryRecordSize]byte

	name := e.Name
	if len(name) > EntryNameSize-1 {
		name = name[:EntryNameSize-1]
	}
	copy(record[:], name)

	record[EntryNameSize] = byte(e.Type)
	binary.LittleEndian.PutUint64(record[0x308:], e.Size)

	return append(dst, record[:]...)
}
