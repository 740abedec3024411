package doc

import (
	"encoding/binary"

	"github.com/asalih/go-officetext/internal/docerr"
)

const (
	clxPrc  = 0x01
	clxPcdt = 0x02

	pcdLen = 8

	fcCompressed = 1 << 30
	fcMask       = fcCompressed - 1
)

// Piece is one run of document text: character positions [CpStart, CpEnd)
// stored at Offset in the WordDocument stream.
type Piece struct {
	CpStart    uint32
	CpEnd      uint32
	Offset     uint32
	Compressed bool
}

// ParseClx reads the piece table out of the CLX structure at
// table[fcClx:fcClx+lcbClx]. Leading Prc blocks are skipped.
func ParseClx(table []byte, fcClx, lcbClx uint32) ([]Piece, error) {
	end := uint64(fcClx) + uint64(lcbClx)
	if end > uint64(len(table)) {
		return nil, docerr.Formatf("CLX [%v, %v) is outside the %v byte table stream", fcClx, end, len(table))
	}

	le := binary.LittleEndian
	pos := uint64(fcClx)
	for pos < uint64(len(table)) && table[pos] == clxPrc {
		if pos+3 > uint64(len(table)) {
			return nil, docerr.Formatf("truncated Prc at %v", pos)
		}
		cbGrpprl := int16(le.Uint16(table[pos+1:]))
		if cbGrpprl < 0 {
			return nil, docerr.Formatf("negative Prc size %v at %v", cbGrpprl, pos)
		}
		pos += 3 + uint64(cbGrpprl)
	}

	if pos >= uint64(len(table)) || table[pos] != clxPcdt {
		return nil, docerr.Formatf("no Pcdt in CLX")
	}
	if pos+5 > uint64(len(table)) {
		return nil, docerr.Formatf("truncated Pcdt at %v", pos)
	}

	lcb := uint64(le.Uint32(table[pos+1:]))
	if end != pos+5+lcb {
		return nil, docerr.Formatf("Pcdt size %v does not match lcbClx %v", lcb, lcbClx)
	}
	if lcb < 4 || (lcb-4)%(4+pcdLen) != 0 {
		return nil, docerr.Formatf("PlcPcd size %v is not 4+12n", lcb)
	}

	plc := table[pos+5 : end]
	n := int((lcb - 4) / (4 + pcdLen))
	pcds := plc[4*(n+1):]

	pieces := make([]Piece, n)
	for i := range pieces {
		fc := le.Uint32(pcds[i*pcdLen+2:])
		pieces[i] = Piece{
			CpStart:    le.Uint32(plc[4*i:]),
			CpEnd:      le.Uint32(plc[4*(i+1):]),
			Offset:     fc & fcMask,
			Compressed: fc&fcCompressed != 0,
		}
	}

	return pieces, nil
}
