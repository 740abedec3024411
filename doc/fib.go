package doc

import (
	"encoding/binary"

	"github.com/asalih/go-officetext/internal/docerr"
)

const (
	fibIdent = 0xA5EC

	// FibRgFcLcb97 starts after FibBase, csw, FibRgW97, cslw and FibRgLw97.
	fibRgFcLcb97Offset = 0x9A
	fibRgFcLcb97Len    = 744

	offFlags2 = 0x0B
	offFcClx  = 0x1A2
	offLcbClx = 0x1A6
)

// Fib holds the fields of the File Information Block needed to find the
// piece table.
type Fib struct {
	Ident      uint16
	NFib       uint16
	Lid        uint16
	Encrypted  bool
	WhichTable int // 0 for 0Table, 1 for 1Table
	Obfuscated bool
	FcClx      uint32
	LcbClx     uint32
}

// ReadFib decodes the FIB at the start of the WordDocument stream.
func ReadFib(b []byte) (*Fib, error) {
	if len(b) < fibRgFcLcb97Offset+fibRgFcLcb97Len {
		return nil, docerr.Formatf("WordDocument is %v bytes, too short for a FIB", len(b))
	}

	le := binary.LittleEndian
	flags2 := b[offFlags2]
	fib := &Fib{
		Ident:      le.Uint16(b[0:]),
		NFib:       le.Uint16(b[2:]),
		Lid:        le.Uint16(b[6:]),
		Encrypted:  flags2&0x01 != 0,
		WhichTable: int(flags2>>1) & 1,
		Obfuscated: flags2&0x80 != 0,
		FcClx:      le.Uint32(b[offFcClx:]),
		LcbClx:     le.Uint32(b[offLcbClx:]),
	}

	if fib.Ident != fibIdent {
		return nil, docerr.Formatf("FIB identifier is 0x%04X, want 0x%04X", fib.Ident, fibIdent)
	}
	if fib.Encrypted {
		return nil, docerr.Unsupportedf("document is encrypted")
	}

	return fib, nil
}

// TableName returns the name of the table stream the FIB selects.
func (f *Fib) TableName() string {
	if f.WhichTable == 1 {
		return Table1Stream
	}
	return Table0Stream
}
