package mscfb

import (
	"time"

	"github.com/google/uuid"
)

// Entry is the caller-facing view of a directory entry, with its full path.
type Entry struct {
	ID           uint32     `yaml:"id"`
	Name         string     `yaml:"name"`
	Path         string     `yaml:"path"`
	ObjType      ObjectType `yaml:"type"`
	CLSID        uuid.UUID  `yaml:"clsid"`
	StateBits    uint32     `yaml:"state_bits"`
	CreationTime uint64     `yaml:"creation_time"`
	ModifiedTime uint64     `yaml:"modified_time"`
	StartSector  uint32     `yaml:"start_sector"`
	StreamLen    uint64     `yaml:"size"`
}

func NewEntry(id uint32, dirEntry *DirEntry, path string) *Entry {
	entry := Entry{
		ID:           id,
		Name:         dirEntry.Name,
		Path:         path,
		ObjType:      dirEntry.ObjType,
		CLSID:        dirEntry.CLSID,
		StateBits:    dirEntry.StateBits,
		CreationTime: dirEntry.CreationTime,
		ModifiedTime: dirEntry.ModifiedTime,
		StartSector:  dirEntry.StartingSector,
		StreamLen:    dirEntry.StreamSize,
	}

	return &entry
}

func (e *Entry) IsStream() bool {
	return e.ObjType == ObjStream
}

func (e *Entry) IsStorage() bool {
	return e.ObjType == ObjStorage || e.ObjType == ObjRoot
}

func (e *Entry) Created() time.Time {
	return filetime(e.CreationTime)
}

func (e *Entry) Modified() time.Time {
	return filetime(e.ModifiedTime)
}

// filetime converts a Windows FILETIME (100ns ticks since 1601-01-01 UTC).
func filetime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	const ticksPerSecond = 10000000
	const epochDelta = 11644473600 // seconds from 1601 to 1970
	secs := int64(ft/ticksPerSecond) - epochDelta
	nsec := int64(ft%ticksPerSecond) * 100
	return time.Unix(secs, nsec).UTC()
}
