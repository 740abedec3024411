package mscfb

import "fmt"

const (
	V3 Version = 3
	V4 Version = 4
)

type Version int

func VersionNumber(v uint16) (Version, error) {
	switch v {
	case 3:
		return V3, nil
	case 4:
		return V4, nil
	default:
		return 0, fmt.Errorf("invalid version number: %v", v)
	}
}

// versionForShift guesses the version of a file whose major version field
// is not trusted.
func versionForShift(shift uint16) Version {
	if shift == V4.SectorShift() {
		return V4
	}
	return V3
}

// Returns the sector shift used in this version.
func (v Version) SectorShift() uint16 {
	return uint16(v * 3)
}

// Returns the length of sectors used in this version.
func (v Version) SectorLen() int {
	return 1 << v.SectorShift()
}

// Returns the bitmask used for reading stream lengths in this version.
// Version 3 writers may leave garbage in the high half of the size field.
func (v Version) SectorLenMask() uint64 {
	switch v {
	case V3:
		return 0xffffffff
	case V4:
		return 0xffffffffffffffff
	default:
		return 0
	}
}

func (v Version) String() string {
	return fmt.Sprintf("v%d", int(v))
}
