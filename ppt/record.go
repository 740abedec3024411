package ppt

import (
	"encoding/binary"

	"github.com/asalih/go-officetext/internal/docerr"
)

const recordHeaderLen = 8

// Record types used while resolving and walking a presentation.
const (
	RT_Document             uint16 = 0x03E8
	RT_Slide                uint16 = 0x03EE
	RT_Notes                uint16 = 0x03F0
	RT_MainMaster           uint16 = 0x03F8
	RT_Drawing              uint16 = 0x040C
	RT_TextCharsAtom        uint16 = 0x0FA0
	RT_TextBytesAtom        uint16 = 0x0FA8
	RT_SlideListWithText    uint16 = 0x0FF0
	RT_UserEditAtom         uint16 = 0x0FF5
	RT_CurrentUserAtom      uint16 = 0x0FF6
	RT_PersistDirectoryAtom uint16 = 0x1772

	RT_OfficeArtDg            uint16 = 0xF002
	RT_OfficeArtSpgrContainer uint16 = 0xF003
	RT_OfficeArtSpContainer   uint16 = 0xF004
	RT_OfficeArtClientTextbox uint16 = 0xF00D
)

// RecordHeader prefixes every record in a PowerPoint stream.
type RecordHeader struct {
	RecVer      uint8
	RecInstance uint16
	RecType     uint16
	RecLen      uint32
}

// ReadRecordHeader decodes the header at b[offset:].
func ReadRecordHeader(b []byte, offset uint64) (RecordHeader, error) {
	if offset > uint64(len(b)) || uint64(len(b))-offset < recordHeaderLen {
		return RecordHeader{}, docerr.Formatf("record header at %v is outside the %v byte stream", offset, len(b))
	}

	le := binary.LittleEndian
	flags := le.Uint16(b[offset:])
	return RecordHeader{
		RecVer:      uint8(flags & 0x0f),
		RecInstance: flags >> 4,
		RecType:     le.Uint16(b[offset+2:]),
		RecLen:      le.Uint32(b[offset+4:]),
	}, nil
}

// body returns the record's payload, which must lie within b.
func (rh RecordHeader) body(b []byte, offset uint64) ([]byte, error) {
	start := offset + recordHeaderLen
	end := start + uint64(rh.RecLen)
	if end > uint64(len(b)) {
		return nil, docerr.Formatf("record 0x%04X at %v runs %v bytes past the end", rh.RecType, offset, end-uint64(len(b)))
	}
	return b[start:end], nil
}
