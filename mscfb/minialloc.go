package mscfb

import (
	"encoding/binary"
	"fmt"
)

// MiniAlloc owns the mini FAT (SSAT) and the mini stream it indexes into.
// The mini stream is the data of the root entry, held in regular sectors.
type MiniAlloc struct {
	Minifat            []uint32
	MinifatStartSector uint32
	MiniStream         []byte
	Shift              uint16
	Validation         Validation
}

func NewMiniAlloc(minifat []uint32, minifatStartSector uint32, miniStream []byte, shift uint16, validation Validation) (*MiniAlloc, error) {
	alloc := MiniAlloc{
		Minifat:            minifat,
		MinifatStartSector: minifatStartSector,
		MiniStream:         miniStream,
		Shift:              shift,
		Validation:         validation,
	}

	err := alloc.Validate()
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// readMinifat walks the mini FAT chain through the FAT and decodes its
// entries.
func readMinifat(alloc *Allocator, header *Header, validation Validation) ([]uint32, error) {
	if header.FirstMinifatSector == END_OF_CHAIN {
		return []uint32{}, nil
	}

	chain, err := alloc.OpenChain(header.FirstMinifatSector)
	if err != nil {
		return nil, fmt.Errorf("mini FAT: %w", err)
	}

	if validation.IsStrict() && header.NumMinifatSectors != chain.NumSectors() {
		return nil, fmt.Errorf("incorrect number of MiniFAT sectors (header says %v, FAT says %v): %w",
			header.NumMinifatSectors, chain.NumSectors(), ErrorInvalidCFB)
	}

	sectorLen := alloc.Sectors.SectorLen()
	raw, err := chain.ReadAll(uint64(chain.NumSectors())*uint64(sectorLen), sectorLen, alloc.Sectors.SectorAt)
	if err != nil {
		return nil, fmt.Errorf("mini FAT: %w", err)
	}

	minifat := make([]uint32, 0, len(raw)/4)
	for i := 0; i+4 <= len(raw); i += 4 {
		minifat = append(minifat, binary.LittleEndian.Uint32(raw[i:]))
	}

	for len(minifat) > 0 && minifat[len(minifat)-1] == FREE_SECTOR {
		minifat = minifat[:len(minifat)-1]
	}

	return minifat, nil
}

func (a *MiniAlloc) MiniSectorLen() int {
	return 1 << a.Shift
}

func (a *MiniAlloc) Next(index uint32) (uint32, error) {
	if index >= uint32(len(a.Minifat)) {
		return 0, fmt.Errorf("mini sector %v is outside the %v entry mini FAT: %w", index, len(a.Minifat), ErrorInvalidCFB)
	}

	return a.Minifat[index], nil
}

func (a *MiniAlloc) Len() int {
	return len(a.Minifat)
}

// MiniSectorAt returns the bytes of mini sector id within the mini stream.
func (a *MiniAlloc) MiniSectorAt(id uint32) ([]byte, error) {
	start := uint64(id) << a.Shift
	if start >= uint64(len(a.MiniStream)) {
		return nil, fmt.Errorf("mini sector %v starts past the %v byte mini stream: %w",
			id, len(a.MiniStream), ErrorInvalidCFB)
	}

	end := start + uint64(a.MiniSectorLen())
	if end > uint64(len(a.MiniStream)) {
		end = uint64(len(a.MiniStream))
	}

	return a.MiniStream[start:end:end], nil
}

func (a *MiniAlloc) OpenMiniChain(start uint32) (*Chain, error) {
	return NewChain(a, start)
}

// ReadChain returns size bytes of the mini chain starting at start.
func (a *MiniAlloc) ReadChain(start uint32, size uint64) ([]byte, error) {
	chain, err := a.OpenMiniChain(start)
	if err != nil {
		return nil, err
	}
	return chain.ReadAll(size, a.MiniSectorLen(), a.MiniSectorAt)
}

func (a *MiniAlloc) Validate() error {
	if !a.Validation.IsStrict() {
		return nil
	}

	rootStreamMiniSectors := uint64(len(a.MiniStream)) / uint64(a.MiniSectorLen())
	if rootStreamMiniSectors < uint64(len(a.Minifat)) {
		return fmt.Errorf("miniFAT has %v entries, but root stream has only %v mini sectors: %w",
			len(a.Minifat), rootStreamMiniSectors, ErrorInvalidCFB)
	}

	pointees := make(map[uint32]bool)
	for miniSectorIdx, miniSector := range a.Minifat {
		if miniSector <= MAX_REGULAR_SECTOR {
			if miniSector >= uint32(len(a.Minifat)) {
				return fmt.Errorf("miniFAT[%v] points to mini sector %v, but there are only %v mini sectors: %w",
					miniSectorIdx, miniSector, len(a.Minifat), ErrorInvalidCFB)
			}

			if pointees[miniSector] {
				return fmt.Errorf("mini sector %v pointed to twice: %w", miniSector, ErrorInvalidCFB)
			}

			pointees[miniSector] = true
		}
	}

	return nil
}
