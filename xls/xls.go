// Package xls extracts cell text from Excel 97-2003 (BIFF8) workbooks.
//
// The globals substream of the Workbook stream yields the shared string
// table and the list of sheets. Each visible worksheet substream is then
// scanned for string, number and (optionally) blank cells, written row by
// row with a delimiter between columns.
package xls

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/asalih/go-officetext/internal/docerr"
	"github.com/asalih/go-officetext/internal/textbuf"
	"github.com/asalih/go-officetext/mscfb"
)

const (
	WorkbookStream = "Workbook"

	DefaultMaxSST    = 0xFFFF
	DefaultDelimiter = ","
)

type Options struct {
	MaxChars int
	// MaxSST caps how many shared strings are decoded; <= 0 means
	// DefaultMaxSST. Cells referring past the cap print as "_".
	MaxSST    int
	Delimiter string
	// KeepBlankCells emits a space for Blank and MulBlank cells.
	KeepBlankCells bool
}

// Globals is what the workbook globals substream declares.
type Globals struct {
	SST    []string
	Sheets []BoundSheet
}

type Workbook struct {
	cd       *mscfb.CompoundDocument
	workbook *mscfb.DirEntry
}

func New(cd *mscfb.CompoundDocument) (*Workbook, error) {
	workbook := cd.FindEntry(WorkbookStream)
	if workbook == nil {
		return nil, docerr.Unsupportedf("no %s stream", WorkbookStream)
	}
	return &Workbook{cd: cd, workbook: workbook}, nil
}

// ParseGlobals reads the globals substream at the start of stream.
func ParseGlobals(stream []byte, maxSST int) (*Globals, error) {
	if maxSST <= 0 {
		maxSST = DefaultMaxSST
	}

	offset, err := readBOF(stream, 0)
	if err != nil {
		return nil, err
	}

	g := &Globals{}
	for offset < len(stream) {
		rh, err := readRecordHeader(stream, offset)
		if err != nil {
			return nil, err
		}

		switch rh.ID {
		case RecordEOF:
			return g, nil
		case RecordFilePass:
			return nil, docerr.Unsupportedf("workbook is encrypted")
		case RecordSST:
			start := offset + recordHeaderLen
			sst, n, err := readSST(stream[start:], int(rh.Size), maxSST)
			if err != nil {
				return nil, err
			}
			g.SST = sst
			offset = start + n
			continue
		case RecordBoundSheet8:
			body, err := rh.body(stream, offset)
			if err != nil {
				return nil, err
			}
			bs, err := parseBoundSheet(body)
			if err != nil {
				return nil, err
			}
			g.Sheets = append(g.Sheets, bs)
		}

		offset += recordHeaderLen + int(rh.Size)
	}

	return nil, docerr.Formatf("globals substream has no EOF")
}

func (w *Workbook) FetchText(opts Options) (string, error) {
	stream, err := w.cd.ReadStream(w.workbook)
	if err != nil {
		return "", err
	}

	globals, err := ParseGlobals(stream, opts.MaxSST)
	if err != nil {
		return "", err
	}

	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	buf := textbuf.New(opts.MaxChars)
	for _, sheet := range globals.Sheets {
		if !sheet.Visible() {
			continue
		}

		buf.WriteString(sheet.Name)
		if buf.Exhausted() || !buf.WriteNewline() || buf.Exhausted() {
			break
		}

		s := &sheetWriter{
			buf:       buf,
			sst:       globals.SST,
			delimiter: delimiter,
			keepBlank: opts.KeepBlankCells,
		}
		if err := s.scan(stream, int(sheet.Position)); err != nil {
			return "", fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
	}

	return textbuf.Sanitize(buf.String()), nil
}

// sheetWriter renders the cells of one worksheet substream.
type sheetWriter struct {
	buf       *textbuf.Buffer
	sst       []string
	delimiter string
	keepBlank bool
	row       uint16
}

func (s *sheetWriter) scan(stream []byte, offset int) error {
	offset, err := readBOF(stream, offset)
	if err != nil {
		return err
	}

	le := binary.LittleEndian
	for offset < len(stream) && !s.buf.Exhausted() {
		rh, err := readRecordHeader(stream, offset)
		if err != nil {
			return err
		}
		body, err := rh.body(stream, offset)
		if err != nil {
			return err
		}

		switch rh.ID {
		case RecordEOF:
			s.buf.WriteNewline()
			return nil

		case RecordLabelSst:
			if len(body) < 10 {
				return docerr.Formatf("LabelSst is %v bytes", len(body))
			}
			text := "_"
			if isst := le.Uint32(body[6:]); uint64(isst) < uint64(len(s.sst)) {
				text = s.sst[isst]
			}
			s.appendCell(text, le.Uint16(body), le.Uint16(body[2:]))

		case RecordRK:
			if len(body) < 10 {
				return docerr.Formatf("RK is %v bytes", len(body))
			}
			s.appendCell(formatRK(le.Uint32(body[6:])), le.Uint16(body), le.Uint16(body[2:]))

		case RecordMulRk:
			row, colFirst, rks, err := parseMulRk(body)
			if err != nil {
				return err
			}
			for i, rk := range rks {
				s.appendCell(formatRK(rk), row, colFirst+uint16(i))
			}

		case RecordNumber:
			if len(body) < 14 {
				return docerr.Formatf("Number is %v bytes", len(body))
			}
			s.appendCell(formatNumber(le.Uint64(body[6:])), le.Uint16(body), le.Uint16(body[2:]))

		case RecordBlank:
			if !s.keepBlank {
				break
			}
			if len(body) < 6 {
				return docerr.Formatf("Blank is %v bytes", len(body))
			}
			s.appendCell(" ", le.Uint16(body), le.Uint16(body[2:]))

		case RecordMulBlank:
			if !s.keepBlank {
				break
			}
			row, colFirst, colLast, err := parseMulBlank(body)
			if err != nil {
				return err
			}
			for col := colFirst; col < colLast; col++ {
				s.appendCell(" ", row, col)
			}
		}

		offset += recordHeaderLen + len(body)
	}

	if !s.buf.Exhausted() {
		return docerr.Formatf("worksheet substream has no EOF")
	}
	return nil
}

// appendCell starts a new line when the row changes and puts the
// delimiter before every column but the first.
func (s *sheetWriter) appendCell(text string, row, col uint16) {
	if s.buf.Exhausted() {
		return
	}
	if row != s.row {
		s.buf.WriteNewline()
		s.row = row
		if s.buf.Exhausted() {
			return
		}
	}
	if col != 0 {
		s.buf.WriteString(s.delimiter)
		if s.buf.Exhausted() {
			return
		}
	}
	s.buf.WriteString(text)
}

// parseMulRk returns the row, first column and RK values of a MulRk
// record. The last field, colLast, must agree with the number of values.
func parseMulRk(body []byte) (uint16, uint16, []uint32, error) {
	le := binary.LittleEndian
	if len(body) < 6 {
		return 0, 0, nil, docerr.Formatf("MulRk is %v bytes", len(body))
	}
	row := le.Uint16(body)
	colFirst := le.Uint16(body[2:])
	colLast := le.Uint16(body[len(body)-2:])
	if colFirst > 254 {
		return 0, 0, nil, docerr.Formatf("MulRk first column %v", colFirst)
	}

	recs := body[4 : len(body)-2]
	if len(recs)%6 != 0 || len(recs)/6 != int(colLast)-int(colFirst)+1 {
		return 0, 0, nil, docerr.Formatf("MulRk holds %v bytes for columns %v..%v", len(recs), colFirst, colLast)
	}

	rks := make([]uint32, len(recs)/6)
	for i := range rks {
		rks[i] = le.Uint32(recs[6*i+2:])
	}
	return row, colFirst, rks, nil
}

func parseMulBlank(body []byte) (uint16, uint16, uint16, error) {
	le := binary.LittleEndian
	if len(body) < 6 {
		return 0, 0, 0, docerr.Formatf("MulBlank is %v bytes", len(body))
	}
	row := le.Uint16(body)
	colFirst := le.Uint16(body[2:])
	colLast := le.Uint16(body[len(body)-2:])
	if colFirst > 254 {
		return 0, 0, 0, docerr.Formatf("MulBlank first column %v", colFirst)
	}

	xfs := body[4 : len(body)-2]
	if len(xfs)%2 != 0 || len(xfs)/2 != int(colLast)-int(colFirst)+1 {
		return 0, 0, 0, docerr.Formatf("MulBlank holds %v bytes for columns %v..%v", len(xfs), colFirst, colLast)
	}
	return row, colFirst, colLast, nil
}

func formatRK(raw uint32) string {
	return fmt.Sprintf("%.2f", RKValue(raw))
}

func formatNumber(bits uint64) string {
	f := math.Float64frombits(bits)
	if f > 10 {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprintf("%f", f)
}
