package mscfb

import "fmt"

type Directory struct {
	DirEntries     []*DirEntry
	DirStartSector uint32
	RootId         uint32
	Validation     Validation
}

func NewDirectory(dirEntries []*DirEntry, dirStartSector uint32, validation Validation) (*Directory, error) {
	dir := Directory{
		DirEntries:     dirEntries,
		DirStartSector: dirStartSector,
		Validation:     validation,
	}

	err := dir.Validate()
	if err != nil {
		return nil, err
	}

	return &dir, nil
}

// readDirectory decodes every entry of the directory chain.
func readDirectory(alloc *Allocator, header *Header) ([]*DirEntry, error) {
	chain, err := alloc.OpenChain(header.FirstDirSector)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}

	sectorLen := alloc.Sectors.SectorLen()
	perSector := sectorLen / DIR_ENTRY_LEN
	dirEntries := make([]*DirEntry, 0, len(chain.SectorIds)*perSector)

	for _, sectorId := range chain.SectorIds {
		sector, err := alloc.Sectors.SectorAt(sectorId)
		if err != nil {
			return nil, fmt.Errorf("directory: %w", err)
		}

		for i := 0; i < perSector && (i+1)*DIR_ENTRY_LEN <= len(sector); i++ {
			entry, err := ReadDirEntry(sector[i*DIR_ENTRY_LEN:(i+1)*DIR_ENTRY_LEN], header.Version)
			if err != nil {
				return nil, err
			}
			dirEntries = append(dirEntries, entry)
		}
	}

	return dirEntries, nil
}

func (d *Directory) RootDirEntry() *DirEntry {
	return d.DirEntries[d.RootId]
}

// Validate requires exactly one root entry. In strict mode it also checks
// the red-black tree: the root sits at index 0, links stay in range,
// siblings are ordered by CompareNames and no entry is reached twice.
func (d *Directory) Validate() error {
	if len(d.DirEntries) == 0 {
		return fmt.Errorf("directory has no entries: %w", ErrorInvalidCFB)
	}

	roots := 0
	for i, entry := range d.DirEntries {
		if entry.ObjType == ObjRoot {
			if roots == 0 {
				d.RootId = uint32(i)
			}
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("directory has %v root entries, want 1: %w", roots, ErrorInvalidCFB)
	}

	if !d.Validation.IsStrict() {
		return nil
	}

	if d.RootId != ROOT_STREAM_ID {
		return fmt.Errorf("root entry is at index %v: %w", d.RootId, ErrorInvalidCFB)
	}

	rootDirEntry := d.RootDirEntry()
	if rootDirEntry.StreamSize%uint64(MINI_SECTOR_LEN) != 0 {
		return fmt.Errorf("root stream len is %v, but should be multiple of %v: %w",
			rootDirEntry.StreamSize, MINI_SECTOR_LEN, ErrorInvalidCFB)
	}

	visited := make(map[uint32]bool)
	stack := []uint32{ROOT_STREAM_ID}

	for len(stack) > 0 {
		dirEntryId := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[dirEntryId] {
			return fmt.Errorf("directory has a cycle at entry %v: %w", dirEntryId, ErrorInvalidCFB)
		}
		visited[dirEntryId] = true

		dirEntry := d.DirEntries[dirEntryId]
		if dirEntryId != ROOT_STREAM_ID {
			if dirEntry.ObjType != ObjStorage && dirEntry.ObjType != ObjStream {
				return fmt.Errorf("non-root entry %v with object type %v: %w", dirEntryId, dirEntry.ObjType, ErrorInvalidCFB)
			}
			if err := ValidateName(dirEntry.Name); err != nil {
				return fmt.Errorf("%v: %w", err, ErrorInvalidCFB)
			}
		}

		leftSibling := dirEntry.LeftSibling
		if leftSibling != NO_STREAM {
			if leftSibling >= uint32(len(d.DirEntries)) {
				return fmt.Errorf("left sibling index is %v, but directory entry count is %v: %w",
					leftSibling, len(d.DirEntries), ErrorInvalidCFB)
			}

			entry := d.DirEntries[leftSibling]
			if CompareNames(entry.Name, dirEntry.Name) != OrderLess {
				return fmt.Errorf("name ordering, %v vs %v: %w", entry.Name, dirEntry.Name, ErrorInvalidCFB)
			}

			stack = append(stack, leftSibling)
		}

		rightSibling := dirEntry.RightSibling
		if rightSibling != NO_STREAM {
			if rightSibling >= uint32(len(d.DirEntries)) {
				return fmt.Errorf("right sibling index is %v, but directory entry count is %v: %w",
					rightSibling, len(d.DirEntries), ErrorInvalidCFB)
			}

			entry := d.DirEntries[rightSibling]
			if CompareNames(dirEntry.Name, entry.Name) != OrderLess {
				return fmt.Errorf("name ordering, %v vs %v: %w", dirEntry.Name, entry.Name, ErrorInvalidCFB)
			}

			stack = append(stack, rightSibling)
		}

		child := dirEntry.Child
		if child != NO_STREAM {
			if child >= uint32(len(d.DirEntries)) {
				return fmt.Errorf("child index is %v, but directory entry count is %v: %w",
					child, len(d.DirEntries), ErrorInvalidCFB)
			}

			stack = append(stack, child)
		}
	}

	return nil
}

// FindByName scans the entries linearly for name. Documents may carry
// stale duplicates, so the largest matching entry wins. Empty slots are
// skipped. It returns -1 when nothing matches.
func (d *Directory) FindByName(name string) int {
	found := -1
	for i, entry := range d.DirEntries {
		if entry.ObjType == ObjEmpty || entry.ObjType == ObjUnknown || entry.Name != name {
			continue
		}
		if found == -1 || entry.StreamSize > d.DirEntries[found].StreamSize {
			found = i
		}
	}
	return found
}

// StreamIDForNameChain descends the red-black trees from the root, one
// name per storage level.
func (d *Directory) StreamIDForNameChain(names []string) (uint32, error) {
	streamId := d.RootId

	for _, name := range names {
		streamId = d.DirEntries[streamId].Child
		for steps := 0; ; steps++ {
			if streamId == NO_STREAM {
				return 0, fmt.Errorf("stream not found: %v", name)
			}
			if streamId >= uint32(len(d.DirEntries)) || steps > len(d.DirEntries) {
				return 0, fmt.Errorf("directory tree is corrupt near %v: %w", name, ErrorInvalidCFB)
			}

			dirEntry := d.DirEntries[streamId]
			order := CompareNames(name, dirEntry.Name)
			if order == OrderEqual {
				break
			}

			switch order {
			case OrderLess:
				streamId = dirEntry.LeftSibling
			case OrderGreater:
				streamId = dirEntry.RightSibling
			}
		}
	}

	return streamId, nil
}

// Walk visits every entry reachable from the root in depth-first order,
// siblings sorted by the tree. Entries reached twice are reported as a
// corrupt tree.
func (d *Directory) Walk(fn func(*Entry) error) error {
	visited := make(map[uint32]bool)

	var visit func(id uint32, parent []string) error
	visit = func(id uint32, parent []string) error {
		if id == NO_STREAM {
			return nil
		}
		if id >= uint32(len(d.DirEntries)) {
			return fmt.Errorf("directory link %v out of range: %w", id, ErrorInvalidCFB)
		}
		if visited[id] {
			return fmt.Errorf("directory has a cycle at entry %v: %w", id, ErrorInvalidCFB)
		}
		visited[id] = true

		dirEntry := d.DirEntries[id]
		if err := visit(dirEntry.LeftSibling, parent); err != nil {
			return err
		}

		names := append(append([]string{}, parent...), dirEntry.Name)
		if err := fn(NewEntry(id, dirEntry, PathFromNameChain(names))); err != nil {
			return err
		}
		if dirEntry.ObjType == ObjStorage {
			if err := visit(dirEntry.Child, names); err != nil {
				return err
			}
		}

		return visit(dirEntry.RightSibling, parent)
	}

	root := d.RootDirEntry()
	visited[d.RootId] = true
	if err := fn(NewEntry(d.RootId, root, "/")); err != nil {
		return err
	}
	return visit(root.Child, nil)
}
