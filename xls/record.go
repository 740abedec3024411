package xls

import (
	"encoding/binary"

	"github.com/asalih/go-officetext/internal/docerr"
)

// BIFF8 record identifiers.
const (
	RecordEOF         uint16 = 0x000A
	RecordFilePass    uint16 = 0x002F
	RecordContinue    uint16 = 0x003C
	RecordBoundSheet8 uint16 = 0x0085
	RecordMulRk       uint16 = 0x00BD
	RecordMulBlank    uint16 = 0x00BE
	RecordSST         uint16 = 0x00FC
	RecordLabelSst    uint16 = 0x00FD
	RecordBlank       uint16 = 0x0201
	RecordNumber      uint16 = 0x0203
	RecordRK          uint16 = 0x027E
	RecordBOF         uint16 = 0x0809
)

const (
	recordHeaderLen = 4

	bofVersionBIFF8 = 0x0600
)

type recordHeader struct {
	ID   uint16
	Size uint16
}

func readRecordHeader(b []byte, offset int) (recordHeader, error) {
	if offset < 0 || len(b)-offset < recordHeaderLen {
		return recordHeader{}, docerr.Formatf("record header at %v is outside the %v byte stream", offset, len(b))
	}
	return recordHeader{
		ID:   binary.LittleEndian.Uint16(b[offset:]),
		Size: binary.LittleEndian.Uint16(b[offset+2:]),
	}, nil
}

// body returns the payload of the record whose header is at offset.
func (rh recordHeader) body(b []byte, offset int) ([]byte, error) {
	start := offset + recordHeaderLen
	end := start + int(rh.Size)
	if end > len(b) {
		return nil, docerr.Formatf("record 0x%04X at %v runs past the end of the stream", rh.ID, offset)
	}
	return b[start:end], nil
}

// readBOF checks for a BIFF8 BOF record at offset and returns the offset
// of the record after it.
func readBOF(b []byte, offset int) (int, error) {
	rh, err := readRecordHeader(b, offset)
	if err != nil {
		return 0, err
	}
	if rh.ID != RecordBOF {
		return 0, docerr.Formatf("expected BOF at %v, found record 0x%04X", offset, rh.ID)
	}
	body, err := rh.body(b, offset)
	if err != nil {
		return 0, err
	}
	if len(body) < 4 {
		return 0, docerr.Formatf("BOF at %v is %v bytes", offset, len(body))
	}
	if vers := binary.LittleEndian.Uint16(body); vers != bofVersionBIFF8 {
		return 0, docerr.Formatf("BIFF version 0x%04X is not BIFF8", vers)
	}
	return offset + recordHeaderLen + len(body), nil
}
