package xls

import (
	"encoding/binary"

	"github.com/asalih/go-officetext/internal/codepage"
	"github.com/asalih/go-officetext/internal/docerr"
)

// Sheet types in BoundSheet8.dt.
const (
	SheetWorksheet = 0x00
	SheetMacro     = 0x01
	SheetChart     = 0x02
	SheetVBModule  = 0x06
)

// Sheet visibility in BoundSheet8.hsState.
const (
	SheetVisible    = 0x00
	SheetHidden     = 0x01
	SheetVeryHidden = 0x02
)

// BoundSheet describes one sheet of the workbook and where its substream
// starts.
type BoundSheet struct {
	Name     string
	Position uint32
	State    uint8
	Type     uint8
}

// Visible reports whether the sheet is a visible worksheet, the only kind
// whose cells are extracted.
func (b BoundSheet) Visible() bool {
	return b.Type == SheetWorksheet && b.State == SheetVisible
}

func parseBoundSheet(body []byte) (BoundSheet, error) {
	if len(body) < 8 {
		return BoundSheet{}, docerr.Formatf("BoundSheet8 is %v bytes", len(body))
	}

	bs := BoundSheet{
		Position: binary.LittleEndian.Uint32(body),
		State:    body[4] & 0x03,
		Type:     body[5],
	}

	cch := int(body[6])
	highByte := body[7]&0x01 != 0
	name := body[8:]

	var err error
	if highByte {
		if len(name) < 2*cch {
			return BoundSheet{}, docerr.Formatf("sheet name runs past BoundSheet8")
		}
		bs.Name, err = codepage.UTF16LE(name[:2*cch])
	} else {
		if len(name) < cch {
			return BoundSheet{}, docerr.Formatf("sheet name runs past BoundSheet8")
		}
		bs.Name, err = codepage.Latin1(name[:cch])
	}
	if err != nil {
		return BoundSheet{}, docerr.Formatf("sheet name: %v", err)
	}

	return bs, nil
}
