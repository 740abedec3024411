// Package mscfb reads Compound File Binary (OLE2) containers, the storage
// format behind legacy .doc, .ppt and .xls files.
//
// A container is parsed from an in-memory buffer in one pass: header,
// master table (DIFAT), sector allocation table (FAT), directory, mini FAT
// and mini stream. Every chain walk is bounded by the size of the table it
// walks, so corrupt or hostile files fail with an error wrapping
// ErrorInvalidCFB instead of looping or reading out of range.
package mscfb

import (
	"fmt"

	"github.com/asalih/go-officetext/internal/docerr"
)

var (
	ErrorInvalidCFB = fmt.Errorf("invalid cfb file: %w", docerr.ErrorFormat)
)

type CompoundDocument struct {
	Header    *Header
	Sectors   *Sectors
	Allocator *Allocator
	Directory *Directory
	MiniAlloc *MiniAlloc

	buf []byte
}

// Open parses buf as a compound document. The signature is checked before
// anything else is read.
func Open(buf []byte, validation Validation) (*CompoundDocument, error) {
	header, err := ReadHeader(buf, validation)
	if err != nil {
		return nil, err
	}

	sectors := NewSectors(buf, header.SectorShift)

	difat, difatSectorIds, err := readDifat(sectors, header, validation)
	if err != nil {
		return nil, err
	}

	fat, err := readFat(sectors, difat, validation)
	if err != nil {
		return nil, err
	}

	allocator, err := NewAllocator(sectors, difatSectorIds, difat, fat, validation)
	if err != nil {
		return nil, err
	}

	dirEntries, err := readDirectory(allocator, header)
	if err != nil {
		return nil, err
	}

	directory, err := NewDirectory(dirEntries, header.FirstDirSector, validation)
	if err != nil {
		return nil, err
	}

	minifat, err := readMinifat(allocator, header, validation)
	if err != nil {
		return nil, err
	}

	miniStream, err := readMiniStream(allocator, directory.RootDirEntry(), validation)
	if err != nil {
		return nil, err
	}

	miniAlloc, err := NewMiniAlloc(minifat, header.FirstMinifatSector, miniStream, header.MiniSectorShift, validation)
	if err != nil {
		return nil, err
	}

	return &CompoundDocument{
		Header:    header,
		Sectors:   sectors,
		Allocator: allocator,
		Directory: directory,
		MiniAlloc: miniAlloc,
		buf:       buf,
	}, nil
}

// readMiniStream loads the root entry's data, which always lives in
// regular sectors no matter how small it is.
func readMiniStream(alloc *Allocator, root *DirEntry, validation Validation) ([]byte, error) {
	if root.StartingSector == END_OF_CHAIN || root.StreamSize == 0 {
		return []byte{}, nil
	}

	chain, err := alloc.OpenChain(root.StartingSector)
	if err != nil {
		return nil, fmt.Errorf("mini stream: %w", err)
	}

	size := root.StreamSize
	sectorLen := alloc.Sectors.SectorLen()
	if capacity := uint64(chain.NumSectors()) * uint64(sectorLen); size > capacity && !validation.IsStrict() {
		size = capacity
	}

	miniStream, err := chain.ReadAll(size, sectorLen, alloc.Sectors.SectorAt)
	if err != nil {
		return nil, fmt.Errorf("mini stream: %w", err)
	}
	return miniStream, nil
}

// Entries returns the directory entries in on-disk order, empty slots
// included, so indices match the sibling and child links.
func (c *CompoundDocument) Entries() []*DirEntry {
	return c.Directory.DirEntries
}

func (c *CompoundDocument) RootEntry() *Entry {
	return NewEntry(c.Directory.RootId, c.Directory.RootDirEntry(), "/")
}

// FindEntry returns the largest entry named name, or nil.
func (c *CompoundDocument) FindEntry(name string) *DirEntry {
	idx := c.Directory.FindByName(name)
	if idx < 0 {
		return nil
	}
	return c.Directory.DirEntries[idx]
}

// HasEntry reports whether any non-empty entry is named name.
func (c *CompoundDocument) HasEntry(name string) bool {
	return c.Directory.FindByName(name) >= 0
}

// ReadStream returns the data of a stream entry. Streams smaller than the
// header's cutoff live in the mini stream and are resolved through the
// mini FAT; larger ones through the FAT.
func (c *CompoundDocument) ReadStream(entry *DirEntry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("nil directory entry")
	}
	if entry.StreamSize == 0 {
		return []byte{}, nil
	}

	var data []byte
	var err error
	if entry.StreamSize < uint64(c.Header.MiniStreamCutoff) {
		data, err = c.MiniAlloc.ReadChain(entry.StartingSector, entry.StreamSize)
	} else {
		data, err = c.Allocator.ReadChain(entry.StartingSector, entry.StreamSize)
	}
	if err != nil {
		return nil, fmt.Errorf("stream %q: %w", entry.Name, err)
	}

	return data, nil
}

// Walk calls fn for the root and every entry reachable from it.
func (c *CompoundDocument) Walk(fn func(*Entry) error) error {
	return c.Directory.Walk(fn)
}

// OpenStream resolves a slash separated path through the directory tree.
func (c *CompoundDocument) OpenStream(path string) (*Stream, error) {
	names := NameChainFromPath(path)
	path = PathFromNameChain(names)
	streamId, err := c.Directory.StreamIDForNameChain(names)
	if err != nil {
		return nil, err
	}

	dirEntry := c.Directory.DirEntries[streamId]
	if dirEntry.ObjType != ObjStream {
		return nil, fmt.Errorf("not a stream: %s", path)
	}

	data, err := c.ReadStream(dirEntry)
	if err != nil {
		return nil, err
	}

	return newStream(NewEntry(streamId, dirEntry, path), data), nil
}
