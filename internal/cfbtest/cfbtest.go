// Package cfbtest writes minimal version 3 compound files for tests.
//
// Streams below 4096 bytes are stored in the mini stream, larger ones in
// regular sectors. FAT sectors that do not fit the header DIFAT are listed
// in DIFAT extension sectors. All streams sit directly under the root storage, linked
// as an ordered chain of right siblings so the tree also passes strict
// validation.
package cfbtest

import (
	"encoding/binary"
	"sort"
	"strings"
	"unicode/utf16"
)

const (
	sectorLen     = 512
	miniLen       = 64
	cutoff        = 4096
	entryLen      = 128
	idsPerSector  = sectorLen / 4
	headerDifat   = 109
	endOfChain    = 0xfffffffe
	freeSector    = 0xffffffff
	fatSectorMark = 0xfffffffd
	difSectorMark = 0xfffffffc
	noStream      = 0xffffffff
)

// Options tune the layout Build produces.
type Options struct {
	// HeaderDifat caps how many FAT sectors the header lists itself; the
	// rest go to extension sectors. 0 means all 109 slots.
	HeaderDifat int
}

type File struct {
	Name string
	Data []byte
}

// Layout records where Build placed things, so tests can corrupt them.
type Layout struct {
	FatSectors        []uint32
	DifatSectors      []uint32
	DirSectors        []uint32
	MinifatSectors    []uint32
	MiniStreamSectors []uint32
	// Start holds the first sector of each stream; Mini tells whether that
	// is a mini sector.
	Start map[string]uint32
	Mini  map[string]bool
}

// SectorOffset returns the file offset of a regular sector.
func SectorOffset(id uint32) int {
	return (int(id) + 1) * sectorLen
}

// FatEntryOffset returns the file offset of the FAT entry for sector id.
func (l *Layout) FatEntryOffset(id uint32) int {
	return SectorOffset(l.FatSectors[id/idsPerSector]) + int(id%idsPerSector)*4
}

// MinifatEntryOffset returns the file offset of the mini FAT entry for
// mini sector id.
func (l *Layout) MinifatEntryOffset(id uint32) int {
	return SectorOffset(l.MinifatSectors[id/idsPerSector]) + int(id%idsPerSector)*4
}

func Build(files ...File) ([]byte, *Layout) {
	return BuildWith(Options{}, files...)
}

func BuildWith(opts Options, files ...File) ([]byte, *Layout) {
	headerSlots := opts.HeaderDifat
	if headerSlots <= 0 || headerSlots > headerDifat {
		headerSlots = headerDifat
	}

	files = append([]File(nil), files...)
	sort.SliceStable(files, func(i, j int) bool {
		return lessName(files[i].Name, files[j].Name)
	})

	layout := &Layout{
		Start: make(map[string]uint32),
		Mini:  make(map[string]bool),
	}

	// Mini stream and its allocation table.
	var miniStream []byte
	var minifat []uint32
	var big []File
	for _, f := range files {
		if len(f.Data) >= cutoff {
			big = append(big, f)
			continue
		}
		layout.Mini[f.Name] = true
		if len(f.Data) == 0 {
			layout.Start[f.Name] = endOfChain
			continue
		}
		start := uint32(len(minifat))
		n := ceil(len(f.Data), miniLen)
		for i := 0; i < n; i++ {
			next := start + uint32(i) + 1
			if i == n-1 {
				next = endOfChain
			}
			minifat = append(minifat, next)
		}
		layout.Start[f.Name] = start
		miniStream = append(miniStream, pad(f.Data, miniLen)...)
	}

	numDir := ceil(len(files)+1, sectorLen/entryLen)
	numMinifat := ceil(len(minifat)*4, sectorLen)
	numMiniStream := ceil(len(miniStream), sectorLen)
	nonFat := numDir + numMinifat + numMiniStream
	for _, f := range big {
		nonFat += ceil(len(f.Data), sectorLen)
	}
	numFat, numDifat := 1, 0
	for {
		numDifat = 0
		if numFat > headerSlots {
			numDifat = ceil(numFat-headerSlots, idsPerSector-1)
		}
		if numFat+numDifat+nonFat <= numFat*idsPerSector {
			break
		}
		numFat++
	}

	total := numFat + numDifat + nonFat
	fat := make([]uint32, numFat*idsPerSector)
	for i := range fat {
		fat[i] = freeSector
	}
	next := uint32(0)
	alloc := func(n int) []uint32 {
		ids := make([]uint32, n)
		for i := range ids {
			ids[i] = next
			next++
		}
		return ids
	}
	link := func(ids []uint32) {
		for i, id := range ids {
			if i == len(ids)-1 {
				fat[id] = endOfChain
			} else {
				fat[id] = ids[i+1]
			}
		}
	}

	layout.FatSectors = alloc(numFat)
	for _, id := range layout.FatSectors {
		fat[id] = fatSectorMark
	}
	layout.DifatSectors = alloc(numDifat)
	for _, id := range layout.DifatSectors {
		fat[id] = difSectorMark
	}
	layout.DirSectors = alloc(numDir)
	link(layout.DirSectors)
	layout.MinifatSectors = alloc(numMinifat)
	link(layout.MinifatSectors)
	layout.MiniStreamSectors = alloc(numMiniStream)
	link(layout.MiniStreamSectors)

	out := make([]byte, (total+1)*sectorLen)
	for _, f := range big {
		ids := alloc(ceil(len(f.Data), sectorLen))
		link(ids)
		layout.Start[f.Name] = ids[0]
		writeChain(out, ids, f.Data)
	}

	le := binary.LittleEndian

	// Header.
	copy(out, []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1})
	le.PutUint16(out[24:], 0x3e)
	le.PutUint16(out[26:], 3)
	le.PutUint16(out[28:], 0xfffe)
	le.PutUint16(out[30:], 9)
	le.PutUint16(out[32:], 6)
	le.PutUint32(out[44:], uint32(numFat))
	le.PutUint32(out[48:], layout.DirSectors[0])
	le.PutUint32(out[56:], cutoff)
	le.PutUint32(out[60:], firstOr(layout.MinifatSectors, endOfChain))
	le.PutUint32(out[64:], uint32(numMinifat))
	le.PutUint32(out[68:], firstOr(layout.DifatSectors, endOfChain))
	le.PutUint32(out[72:], uint32(numDifat))
	for i := 0; i < headerDifat; i++ {
		id := uint32(freeSector)
		if i < numFat && i < headerSlots {
			id = layout.FatSectors[i]
		}
		le.PutUint32(out[76+4*i:], id)
	}

	// DIFAT extension sectors: 127 FAT sector ids, then the next one.
	rest := layout.FatSectors[min(numFat, headerSlots):]
	for i, id := range layout.DifatSectors {
		sector := out[SectorOffset(id) : SectorOffset(id)+sectorLen]
		for j := 0; j < idsPerSector-1; j++ {
			v := uint32(freeSector)
			if k := i*(idsPerSector-1) + j; k < len(rest) {
				v = rest[k]
			}
			le.PutUint32(sector[4*j:], v)
		}
		next := uint32(endOfChain)
		if i+1 < len(layout.DifatSectors) {
			next = layout.DifatSectors[i+1]
		}
		le.PutUint32(sector[4*(idsPerSector-1):], next)
	}

	// FAT and mini FAT.
	fatBytes := make([]byte, len(fat)*4)
	for i, v := range fat {
		le.PutUint32(fatBytes[4*i:], v)
	}
	writeChain(out, layout.FatSectors, fatBytes)

	minifatBytes := make([]byte, numMinifat*sectorLen)
	for i := range minifatBytes {
		minifatBytes[i] = 0xff
	}
	for i, v := range minifat {
		le.PutUint32(minifatBytes[4*i:], v)
	}
	writeChain(out, layout.MinifatSectors, minifatBytes)
	writeChain(out, layout.MiniStreamSectors, miniStream)

	// Directory.
	dir := make([]byte, numDir*sectorLen)
	for i := 0; i < numDir*sectorLen/entryLen; i++ {
		e := dir[i*entryLen : (i+1)*entryLen]
		le.PutUint32(e[68:], noStream)
		le.PutUint32(e[72:], noStream)
		le.PutUint32(e[76:], noStream)
	}
	root := dir[:entryLen]
	putName(root, "Root Entry")
	root[66] = 5
	root[67] = 1
	if len(files) > 0 {
		le.PutUint32(root[76:], 1)
	}
	le.PutUint32(root[116:], firstOr(layout.MiniStreamSectors, endOfChain))
	le.PutUint64(root[120:], uint64(len(miniStream)))

	for i, f := range files {
		e := dir[(i+1)*entryLen : (i+2)*entryLen]
		putName(e, f.Name)
		e[66] = 2
		e[67] = 1
		if i+1 < len(files) {
			le.PutUint32(e[72:], uint32(i+2))
		}
		le.PutUint32(e[116:], layout.Start[f.Name])
		le.PutUint64(e[120:], uint64(len(f.Data)))
	}
	writeChain(out, layout.DirSectors, dir)

	return out, layout
}

func writeChain(out []byte, ids []uint32, data []byte) {
	for i, id := range ids {
		start := i * sectorLen
		if start >= len(data) {
			return
		}
		end := start + sectorLen
		if end > len(data) {
			end = len(data)
		}
		copy(out[SectorOffset(id):], data[start:end])
	}
}

func putName(e []byte, name string) {
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		binary.LittleEndian.PutUint16(e[2*i:], u)
	}
	binary.LittleEndian.PutUint16(e[64:], uint16(2*(len(units)+1)))
}

func lessName(a, b string) bool {
	ua := utf16.Encode([]rune(strings.ToUpper(a)))
	ub := utf16.Encode([]rune(strings.ToUpper(b)))
	if len(ua) != len(ub) {
		return len(ua) < len(ub)
	}
	for i := range ua {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return false
}

func pad(b []byte, n int) []byte {
	out := make([]byte, ceil(len(b), n)*n)
	copy(out, b)
	return out
}

func ceil(a, b int) int {
	return (a + b - 1) / b
}

func firstOr(ids []uint32, def uint32) uint32 {
	if len(ids) == 0 {
		return def
	}
	return ids[0]
}
