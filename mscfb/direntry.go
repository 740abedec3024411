package mscfb

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/asalih/go-officetext/internal/codepage"
)

type Color int

const (
	Red Color = iota
	Black
)

func ColorFromByte(b byte) Color {
	if b == COLOR_RED {
		return Red
	}
	return Black
}

type DirEntry struct {
	Name           string
	NameLen        uint16 // in bytes, including the terminator
	ObjType        ObjectType
	Color          Color
	LeftSibling    uint32
	RightSibling   uint32
	Child          uint32
	CLSID          uuid.UUID
	StateBits      uint32
	CreationTime   uint64
	ModifiedTime   uint64
	StartingSector uint32
	StreamSize     uint64
}

// ReadDirEntry decodes one 128-byte directory entry.
func ReadDirEntry(b []byte, version Version) (*DirEntry, error) {
	if len(b) < DIR_ENTRY_LEN {
		return nil, fmt.Errorf("directory entry is %v bytes, need %v: %w", len(b), DIR_ENTRY_LEN, ErrorInvalidCFB)
	}

	le := binary.LittleEndian
	dir := DirEntry{
		NameLen:        le.Uint16(b[64:]),
		ObjType:        ObjectFromByte(b[66]),
		Color:          ColorFromByte(b[67]),
		LeftSibling:    le.Uint32(b[68:]),
		RightSibling:   le.Uint32(b[72:]),
		Child:          le.Uint32(b[76:]),
		CLSID:          clsidFromBytes(b[80:96]),
		StateBits:      le.Uint32(b[96:]),
		CreationTime:   le.Uint64(b[100:]),
		ModifiedTime:   le.Uint64(b[108:]),
		StartingSector: le.Uint32(b[116:]),
		StreamSize:     le.Uint64(b[120:]) & version.SectorLenMask(),
	}

	if dir.ObjType != ObjEmpty && dir.ObjType != ObjUnknown {
		dir.Name = decodeName(b[:DIR_NAME_LEN], dir.NameLen)
	}

	return &dir, nil
}

// decodeName reads nameLen/2-1 UTF-16 code units; the trailing unit is the
// terminator. Lengths past the 64-byte field are clipped.
func decodeName(field []byte, nameLen uint16) string {
	units := int(nameLen)/2 - 1
	if units <= 0 {
		return ""
	}
	if units > MAX_NAME_LEN {
		units = MAX_NAME_LEN
	}

	name, err := codepage.UTF16LE(field[:2*units])
	if err != nil {
		return ""
	}
	return name
}

// clsidFromBytes converts an on-disk GUID, whose first three fields are
// little-endian, to the canonical big-endian UUID layout.
func clsidFromBytes(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u
}

// IsStream reports whether the entry holds stream data.
func (d *DirEntry) IsStream() bool {
	return d.ObjType == ObjStream
}
