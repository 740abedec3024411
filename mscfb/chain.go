package mscfb

import (
	"fmt"
)

// SectorTable is an allocation table a chain can be walked through: the
// FAT for regular sectors, the mini FAT for mini sectors.
type SectorTable interface {
	Next(index uint32) (uint32, error)
	Len() int
}

// Chain is the ordered list of sector ids that hold one stream.
type Chain struct {
	SectorIds []uint32
}

// NewChain follows table from start until END_OF_CHAIN. A chain can never
// be longer than its table, so a longer walk is reported as a cycle
// instead of looping forever.
func NewChain(table SectorTable, start uint32) (*Chain, error) {
	sectorIds := make([]uint32, 0)
	currentSectorId := start
	limit := table.Len()

	var err error
	for currentSectorId != END_OF_CHAIN {
		if len(sectorIds) >= limit {
			return nil, fmt.Errorf("chain starting at sector %v is longer than its %v entry table: %w",
				start, limit, ErrorInvalidCFB)
		}

		sectorIds = append(sectorIds, currentSectorId)
		currentSectorId, err = table.Next(currentSectorId)
		if err != nil {
			return nil, err
		}
	}

	return &Chain{
		SectorIds: sectorIds,
	}, nil
}

func (c *Chain) NumSectors() uint32 {
	return uint32(len(c.SectorIds))
}

// ReadAll copies the sectors of the chain into a buffer of exactly size
// bytes, truncating the last sector. sectorAt resolves a sector id to its
// bytes and may return a short slice for a sector clipped by the end of
// the file; that is only an error if the bytes are actually needed.
func (c *Chain) ReadAll(size uint64, sectorLen int, sectorAt func(uint32) ([]byte, error)) ([]byte, error) {
	capacity := uint64(len(c.SectorIds)) * uint64(sectorLen)
	if size > capacity {
		return nil, fmt.Errorf("stream of %v bytes does not fit its %v sector chain: %w",
			size, len(c.SectorIds), ErrorInvalidCFB)
	}

	out := make([]byte, size)
	offset := 0
	for _, sectorId := range c.SectorIds {
		if offset == len(out) {
			break
		}

		sector, err := sectorAt(sectorId)
		if err != nil {
			return nil, err
		}

		n := copy(out[offset:], sector)
		offset += n
		if n < sectorLen && offset < len(out) {
			return nil, fmt.Errorf("sector %v is truncated (%v of %v bytes): %w",
				sectorId, len(sector), sectorLen, ErrorInvalidCFB)
		}
	}

	return out, nil
}
