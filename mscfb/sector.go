package mscfb

import (
	"fmt"
)

// Sectors addresses the fixed-size sectors that follow the header.
type Sectors struct {
	Shift      uint16
	NumSectors uint32

	buf []byte
}

func NewSectors(buf []byte, shift uint16) *Sectors {
	sectorLen := int64(1) << shift
	numSectors := ((int64(len(buf)) + sectorLen - 1) / sectorLen) - 1
	if numSectors < 0 {
		numSectors = 0
	}
	if numSectors > int64(MAX_REGULAR_SECTOR) {
		numSectors = int64(MAX_REGULAR_SECTOR)
	}

	return &Sectors{
		Shift:      shift,
		NumSectors: uint32(numSectors),
		buf:        buf,
	}
}

func (s *Sectors) SectorLen() int {
	return 1 << s.Shift
}

// SectorAt returns the bytes of sector id. The header occupies the first
// sector slot, so sector id starts at (id+1)*SectorLen, which is
// 512+id*512 for the common 512-byte sectors. The last sector may be
// shorter than SectorLen when the file is truncated.
func (s *Sectors) SectorAt(id uint32) ([]byte, error) {
	start := (uint64(id) + 1) << s.Shift
	if start >= uint64(len(s.buf)) {
		return nil, fmt.Errorf("sector %v starts past the end of a %v byte file: %w", id, len(s.buf), ErrorInvalidCFB)
	}

	end := start + uint64(s.SectorLen())
	if end > uint64(len(s.buf)) {
		end = uint64(len(s.buf))
	}

	return s.buf[start:end:end], nil
}
