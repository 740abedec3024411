package mscfb

import (
	"encoding/binary"
	"fmt"
)

// Allocator owns the sector allocation table (FAT) and the master table
// (DIFAT) it was assembled from.
type Allocator struct {
	Sectors        *Sectors
	DifatSectorIds []uint32
	Difat          []uint32
	Fat            []uint32
	Validation     Validation
}

func NewAllocator(sectors *Sectors, difatSectorIds []uint32, difat []uint32, fat []uint32, validation Validation) (*Allocator, error) {
	alloc := Allocator{
		Sectors:        sectors,
		DifatSectorIds: difatSectorIds,
		Difat:          difat,
		Fat:            fat,
		Validation:     validation,
	}

	err := alloc.Validate()
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// readDifat builds the master allocation table: the inline header entries
// up to the first free slot, then the entries of every DIFAT extension
// sector. The last entry of an extension sector points to the next one.
// The walk stops at END_OF_CHAIN, at the count the header declares, or on
// a revisited sector, so a corrupt count cannot make it run away.
func readDifat(sectors *Sectors, header *Header, validation Validation) ([]uint32, []uint32, error) {
	difat := make([]uint32, 0, NUM_DIFAT_ENTRIES_IN_HEADER)
	for _, id := range header.InitialDifatEntries {
		if id == FREE_SECTOR {
			break
		}
		difat = append(difat, id)
	}

	seenSectorIds := make(map[uint32]bool)
	difatSectorIds := make([]uint32, 0)
	perSector := sectors.SectorLen()/4 - 1
	currentDifatSector := header.FirstDifatSector

	for currentDifatSector != END_OF_CHAIN && currentDifatSector != FREE_SECTOR {
		if uint32(len(difatSectorIds)) >= header.NumDifatSectors {
			break
		}
		if currentDifatSector >= sectors.NumSectors {
			return nil, nil, fmt.Errorf("DIFAT chain includes sector %v, but file has %v sectors: %w",
				currentDifatSector, sectors.NumSectors, ErrorInvalidCFB)
		}
		if seenSectorIds[currentDifatSector] {
			return nil, nil, fmt.Errorf("DIFAT chain includes duplicate sector index %v: %w",
				currentDifatSector, ErrorInvalidCFB)
		}
		seenSectorIds[currentDifatSector] = true
		difatSectorIds = append(difatSectorIds, currentDifatSector)

		sector, err := sectors.SectorAt(currentDifatSector)
		if err != nil {
			return nil, nil, err
		}
		if len(sector) < sectors.SectorLen() {
			return nil, nil, fmt.Errorf("DIFAT sector %v is truncated: %w", currentDifatSector, ErrorInvalidCFB)
		}

		for i := 0; i < perSector; i++ {
			next := binary.LittleEndian.Uint32(sector[4*i:])
			if next == FREE_SECTOR {
				continue
			}
			if next > MAX_REGULAR_SECTOR {
				return nil, nil, fmt.Errorf("DIFAT refers to invalid sector index 0x%08x: %w", next, ErrorInvalidCFB)
			}
			difat = append(difat, next)
		}

		currentDifatSector = binary.LittleEndian.Uint32(sector[4*perSector:])
	}

	if validation.IsStrict() {
		if header.NumDifatSectors != uint32(len(difatSectorIds)) {
			return nil, nil, fmt.Errorf("incorrect DIFAT chain length (header says %v, actual is %v): %w",
				header.NumDifatSectors, len(difatSectorIds), ErrorInvalidCFB)
		}
		if header.NumFatSectors != uint32(len(difat)) {
			return nil, nil, fmt.Errorf("incorrect number of FAT sectors (header says %v, DIFAT says %v): %w",
				header.NumFatSectors, len(difat), ErrorInvalidCFB)
		}
	}

	return difat, difatSectorIds, nil
}

// readFat concatenates the 4-byte entries of every sector the DIFAT lists.
func readFat(sectors *Sectors, difat []uint32, validation Validation) ([]uint32, error) {
	fat := make([]uint32, 0, len(difat)*sectors.SectorLen()/4)
	for _, sectorId := range difat {
		if sectorId >= sectors.NumSectors {
			return nil, fmt.Errorf("FAT sector %v is past the last sector %v: %w",
				sectorId, sectors.NumSectors, ErrorInvalidCFB)
		}

		sector, err := sectors.SectorAt(sectorId)
		if err != nil {
			return nil, err
		}
		for i := 0; i+4 <= len(sector); i += 4 {
			fat = append(fat, binary.LittleEndian.Uint32(sector[i:]))
		}
	}

	if !validation.IsStrict() {
		for len(fat) > int(sectors.NumSectors) && fat[len(fat)-1] == 0 {
			fat = fat[:len(fat)-1]
		}
	}

	for len(fat) > 0 && fat[len(fat)-1] == FREE_SECTOR {
		fat = fat[:len(fat)-1]
	}

	return fat, nil
}

// Next returns the sector that follows index in its chain.
func (a *Allocator) Next(index uint32) (uint32, error) {
	if index >= uint32(len(a.Fat)) {
		return 0, fmt.Errorf("sector %v is outside the %v entry FAT: %w", index, len(a.Fat), ErrorInvalidCFB)
	}

	return a.Fat[index], nil
}

func (a *Allocator) Len() int {
	return len(a.Fat)
}

// OpenChain resolves the chain of regular sectors starting at start.
func (a *Allocator) OpenChain(start uint32) (*Chain, error) {
	return NewChain(a, start)
}

// ReadChain returns size bytes of the regular-sector chain starting at start.
func (a *Allocator) ReadChain(start uint32, size uint64) ([]byte, error) {
	chain, err := a.OpenChain(start)
	if err != nil {
		return nil, err
	}
	return chain.ReadAll(size, a.Sectors.SectorLen(), a.Sectors.SectorAt)
}

func (a *Allocator) Validate() error {
	strict := a.Validation.IsStrict()

	if strict && len(a.Fat) > int(a.Sectors.NumSectors) {
		return fmt.Errorf("fat has %v entries, but file has %v: %w",
			len(a.Fat), a.Sectors.NumSectors, ErrorInvalidCFB)
	}

	for _, difatSector := range a.DifatSectorIds {
		if difatSector >= uint32(len(a.Fat)) {
			if strict {
				return fmt.Errorf("FAT has %v entries, but DIFAT lists %v as a DIFAT sector: %w",
					len(a.Fat), difatSector, ErrorInvalidCFB)
			}
			continue
		}

		if a.Fat[difatSector] != DIFAT_SECTOR {
			if strict {
				return fmt.Errorf("DIFAT sector %v is not marked as such in the FAT: %w", difatSector, ErrorInvalidCFB)
			}
			a.Fat[difatSector] = DIFAT_SECTOR
		}
	}

	for _, fatSector := range a.Difat {
		if fatSector >= uint32(len(a.Fat)) {
			if strict {
				return fmt.Errorf("FAT has %v entries, but DIFAT lists %v as a FAT sector: %w",
					len(a.Fat), fatSector, ErrorInvalidCFB)
			}
			continue
		}

		if a.Fat[fatSector] != FAT_SECTOR {
			if strict {
				return fmt.Errorf("FAT sector %v is not marked as such in the FAT: %w", fatSector, ErrorInvalidCFB)
			}
			a.Fat[fatSector] = FAT_SECTOR
		}
	}

	if !strict {
		return nil
	}

	pointees := make(map[uint32]bool)
	for fatIdx, fat := range a.Fat {
		if fat <= MAX_REGULAR_SECTOR {
			if fat >= uint32(len(a.Fat)) {
				return fmt.Errorf("FAT entry %v points to sector %v, but file has only %v sectors: %w",
					fatIdx, fat, len(a.Fat), ErrorInvalidCFB)
			}
			if pointees[fat] {
				return fmt.Errorf("FAT entry %v points to sector %v, which is already pointed to by another FAT entry: %w",
					fatIdx, fat, ErrorInvalidCFB)
			}
			pointees[fat] = true
		} else if fat == INVALID_SECTOR {
			return fmt.Errorf("FAT entry %v holds the invalid sector marker: %w", fatIdx, ErrorInvalidCFB)
		}
	}

	return nil
}
