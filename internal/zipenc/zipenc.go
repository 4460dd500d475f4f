// Package zipenc builds uncompressed ZIP byte streams. Entries are stored
// verbatim (method 0), which keeps the writer dependency-free and the output
// readable by any standard ZIP tool.
package zipenc

import (
	"bytes"
	"encoding/binary"
)

const (
	localHeaderSignature   = 0x04034b50
	centralHeaderSignature = 0x02014b50
	endOfCentralSignature  = 0x06054b50

	versionNeeded = 20
	methodStored  = 0
)

// Entry is one named byte buffer to be placed in the archive.
type Entry struct {
	Name string
	Data []byte
}

// crcTable is the reflected-polynomial CRC-32 lookup table (0xEDB88320).
var crcTable [256]uint32

func init() {
	for i := range crcTable {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ 0xEDB88320
			} else {
				crc >>= 1
			}
		}
		crcTable[i] = crc
	}
}

// Checksum computes the CRC-32 of data with initial register 0xFFFFFFFF and a
// final bitwise complement.
func Checksum(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		crc = (crc >> 8) ^ crcTable[byte(crc)^b]
	}
	return ^crc
}

type centralRecord struct {
	name   string
	crc    uint32
	size   uint32
	offset uint32
}

// Encode produces a single valid ZIP byte stream from the entries, in input
// order. Every entry is stored uncompressed; mod time and date are zeroed so
// identical inputs produce identical archives.
func Encode(entries []Entry) []byte {
	var buf bytes.Buffer
	records := make([]centralRecord, 0, len(entries))

	offset := uint32(0)
	for _, e := range entries {
		name := []byte(e.Name)
		crc := Checksum(e.Data)
		size := uint32(len(e.Data))

		writeUint32(&buf, localHeaderSignature)
		writeUint16(&buf, versionNeeded)
		writeUint16(&buf, 0) // general purpose flags
		writeUint16(&buf, methodStored)
		writeUint16(&buf, 0) // mod time
		writeUint16(&buf, 0) // mod date
		writeUint32(&buf, crc)
		writeUint32(&buf, size) // compressed size == uncompressed for stored
		writeUint32(&buf, size)
		writeUint16(&buf, uint16(len(name)))
		writeUint16(&buf, 0) // extra field length
		buf.Write(name)
		buf.Write(e.Data)

		records = append(records, centralRecord{
			name:   e.Name,
			crc:    crc,
			size:   size,
			offset: offset,
		})
		offset += 30 + uint32(len(name)) + size
	}

	centralStart := offset
	for _, rec := range records {
		name := []byte(rec.name)

		writeUint32(&buf, centralHeaderSignature)
		writeUint16(&buf, versionNeeded) // version made by
		writeUint16(&buf, versionNeeded) // version needed to extract
		writeUint16(&buf, 0)             // general purpose flags
		writeUint16(&buf, methodStored)
		writeUint16(&buf, 0) // mod time
		writeUint16(&buf, 0) // mod date
		writeUint32(&buf, rec.crc)
		writeUint32(&buf, rec.size)
		writeUint32(&buf, rec.size)
		writeUint16(&buf, uint16(len(name)))
		writeUint16(&buf, 0) // extra field length
		writeUint16(&buf, 0) // comment length
		writeUint16(&buf, 0) // disk number start
		writeUint16(&buf, 0) // internal attributes
		writeUint32(&buf, 0) // external attributes
		writeUint32(&buf, rec.offset)
		buf.Write(name)
	}
	centralSize := uint32(buf.Len()) - centralStart

	writeUint32(&buf, endOfCentralSignature)
	writeUint16(&buf, 0) // this disk
	writeUint16(&buf, 0) // disk with central directory
	writeUint16(&buf, uint16(len(records)))
	writeUint16(&buf, uint16(len(records)))
	writeUint32(&buf, centralSize)
	writeUint32(&buf, centralStart)
	writeUint16(&buf, 0) // comment length

	return buf.Bytes()
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
