package ppt

import (
	"encoding/binary"

	"github.com/asalih/go-officetext/internal/docerr"
)

const userEditAtomLen = 36

// UserEditAtom records one save of the presentation.
type UserEditAtom struct {
	LastSlideIdRef         uint32
	OffsetLastEdit         uint32
	OffsetPersistDirectory uint32
	DocPersistIdRef        uint32
	PersistIdSeed          uint32
}

// ReadUserEditAtom decodes and checks the UserEditAtom at b[offset:].
func ReadUserEditAtom(b []byte, offset uint64) (*UserEditAtom, error) {
	rh, err := ReadRecordHeader(b, offset)
	if err != nil {
		return nil, err
	}
	if uint64(len(b))-offset < userEditAtomLen {
		return nil, docerr.Formatf("UserEditAtom at %v is truncated", offset)
	}

	le := binary.LittleEndian
	a := b[offset:]
	atom := &UserEditAtom{
		LastSlideIdRef:         le.Uint32(a[8:]),
		OffsetLastEdit:         le.Uint32(a[16:]),
		OffsetPersistDirectory: le.Uint32(a[20:]),
		DocPersistIdRef:        le.Uint32(a[24:]),
		PersistIdSeed:          le.Uint32(a[28:]),
	}

	if rh.RecVer != 0 || rh.RecInstance != 0 || rh.RecType != RT_UserEditAtom ||
		(rh.RecLen != 0x1C && rh.RecLen != 0x20) ||
		a[14] != 0 || a[15] != 3 || atom.DocPersistIdRef != 1 {
		return nil, docerr.Formatf("invalid UserEditAtom at %v", offset)
	}

	return atom, nil
}

// ResolvePersistDirectory follows the chain of UserEditAtoms starting at
// the current edit and merges their persist directories. Newer edits come
// first in the chain, so the first offset seen for an id wins.
func ResolvePersistDirectory(cua *CurrentUserAtom, stream []byte) (map[uint32]uint32, error) {
	id2offset := make(map[uint32]uint32)
	visited := make(map[uint32]bool)

	for offset := cua.OffsetToCurrentEdit; ; {
		if visited[offset] {
			return nil, docerr.Formatf("UserEditAtom chain loops back to %v", offset)
		}
		visited[offset] = true

		edit, err := ReadUserEditAtom(stream, uint64(offset))
		if err != nil {
			return nil, err
		}

		if err := readPersistDirectory(stream, edit, id2offset); err != nil {
			return nil, err
		}

		offset = edit.OffsetLastEdit
		if offset == 0 {
			break
		}
	}

	return id2offset, nil
}

// readPersistDirectory adds the entries of the PersistDirectoryAtom edit
// points to, keeping ids already present.
func readPersistDirectory(stream []byte, edit *UserEditAtom, id2offset map[uint32]uint32) error {
	offset := uint64(edit.OffsetPersistDirectory)
	rh, err := ReadRecordHeader(stream, offset)
	if err != nil {
		return err
	}
	if rh.RecVer != 0 || rh.RecInstance != 0 || rh.RecType != RT_PersistDirectoryAtom {
		return docerr.Formatf("no PersistDirectoryAtom at %v", offset)
	}
	data, err := rh.body(stream, offset)
	if err != nil {
		return err
	}

	le := binary.LittleEndian
	for pos := uint64(0); pos < uint64(len(data)); {
		if uint64(len(data))-pos < 4 {
			return docerr.Formatf("truncated persist directory entry at %v", pos)
		}
		flags := le.Uint32(data[pos:])
		persistId := flags & (1<<20 - 1)
		cPersist := uint64(flags >> 20)
		if cPersist == 0 {
			return docerr.Formatf("persist directory entry for id %v is empty", persistId)
		}

		end := pos + 4 + 4*cPersist
		if end > uint64(len(data)) {
			return docerr.Formatf("persist directory entry for id %v runs past its atom", persistId)
		}

		for j := uint64(0); j < cPersist; j++ {
			persistOffset := le.Uint32(data[pos+4+4*j:])
			if persistOffset < edit.OffsetLastEdit {
				return docerr.Formatf("persist offset %v precedes the previous edit at %v",
					persistOffset, edit.OffsetLastEdit)
			}
			id := persistId + uint32(j)
			if _, ok := id2offset[id]; !ok {
				id2offset[id] = persistOffset
			}
		}

		pos = end
	}

	return nil
}
