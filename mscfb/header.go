package mscfb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type Header struct {
	Version            Version
	ByteOrder          uint16
	SectorShift        uint16
	MiniSectorShift    uint16
	NumDirSectors      uint32
	NumFatSectors      uint32
	FirstDirSector     uint32
	MiniStreamCutoff   uint32
	FirstMinifatSector uint32
	NumMinifatSectors  uint32
	FirstDifatSector   uint32
	NumDifatSectors    uint32

	InitialDifatEntries [NUM_DIFAT_ENTRIES_IN_HEADER]uint32
}

// HasMagic reports whether buf starts with the compound document signature.
func HasMagic(buf []byte) bool {
	return len(buf) >= len(MAGIC_NUMBER) && bytes.Equal(buf[:len(MAGIC_NUMBER)], MAGIC_NUMBER)
}

// ReadHeader decodes the fixed 512-byte header at the start of buf.
func ReadHeader(buf []byte, validation Validation) (*Header, error) {
	if !HasMagic(buf) {
		return nil, fmt.Errorf("missing signature: %w", ErrorInvalidCFB)
	}
	if len(buf) < HEADER_LEN {
		return nil, fmt.Errorf("header is %v bytes, need %v: %w", len(buf), HEADER_LEN, ErrorInvalidCFB)
	}

	le := binary.LittleEndian
	h := &Header{
		ByteOrder:          le.Uint16(buf[offByteOrder:]),
		SectorShift:        le.Uint16(buf[offSectorShift:]),
		MiniSectorShift:    le.Uint16(buf[offMiniSectorShift:]),
		NumDirSectors:      le.Uint32(buf[offNumDirSectors:]),
		NumFatSectors:      le.Uint32(buf[offNumFatSectors:]),
		FirstDirSector:     le.Uint32(buf[offFirstDirSector:]),
		MiniStreamCutoff:   le.Uint32(buf[offMiniStreamCutoff:]),
		FirstMinifatSector: le.Uint32(buf[offFirstMinifatSector:]),
		NumMinifatSectors:  le.Uint32(buf[offNumMinifatSectors:]),
		FirstDifatSector:   le.Uint32(buf[offFirstDifatSector:]),
		NumDifatSectors:    le.Uint32(buf[offNumDifatSectors:]),
	}
	for i := range h.InitialDifatEntries {
		h.InitialDifatEntries[i] = le.Uint32(buf[offDifat+4*i:])
	}

	if h.SectorShift < MIN_SECTOR_SHIFT || h.SectorShift > MAX_SECTOR_SHIFT {
		return nil, fmt.Errorf("sector shift %v out of range: %w", h.SectorShift, ErrorInvalidCFB)
	}
	if h.MiniSectorShift >= h.SectorShift {
		return nil, fmt.Errorf("mini sector shift %v not below sector shift %v: %w",
			h.MiniSectorShift, h.SectorShift, ErrorInvalidCFB)
	}

	// Some CFB implementations use FREE_SECTOR to indicate END_OF_CHAIN.
	if h.FirstDifatSector == FREE_SECTOR {
		h.FirstDifatSector = END_OF_CHAIN
	}
	if h.FirstMinifatSector == FREE_SECTOR {
		h.FirstMinifatSector = END_OF_CHAIN
	}

	major := le.Uint16(buf[offMajorVersion:])
	if !validation.IsStrict() {
		h.Version = versionForShift(h.SectorShift)
		return h, nil
	}

	version, err := VersionNumber(major)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrorInvalidCFB)
	}
	h.Version = version

	if h.ByteOrder != BYTE_ORDER_MARK {
		return nil, fmt.Errorf("invalid byte order mark (expected 0x%04X, found 0x%04X): %w",
			BYTE_ORDER_MARK, h.ByteOrder, ErrorInvalidCFB)
	}
	if h.SectorShift != version.SectorShift() {
		return nil, fmt.Errorf("incorrect sector shift for CFB version %v (expected %v, found %v): %w",
			version, version.SectorShift(), h.SectorShift, ErrorInvalidCFB)
	}
	if h.MiniSectorShift != MINI_SECTOR_SHIFT {
		return nil, fmt.Errorf("incorrect mini sector shift (expected %v, found %v): %w",
			MINI_SECTOR_SHIFT, h.MiniSectorShift, ErrorInvalidCFB)
	}
	if h.MiniStreamCutoff != MINI_STREAM_CUTOFF {
		return nil, fmt.Errorf("incorrect mini stream cutoff (expected %v, found %v): %w",
			MINI_STREAM_CUTOFF, h.MiniStreamCutoff, ErrorInvalidCFB)
	}
	if version == V3 && h.NumDirSectors != 0 {
		return nil, fmt.Errorf("version 3 header declares %v directory sectors: %w",
			h.NumDirSectors, ErrorInvalidCFB)
	}

	return h, nil
}

// SectorLen returns the size of a regular sector in bytes.
func (h *Header) SectorLen() int {
	return 1 << h.SectorShift
}

// MiniSectorLen returns the size of a mini sector in bytes.
func (h *Header) MiniSectorLen() int {
	return 1 << h.MiniSectorShift
}
