package mscfb

// ========================================================================= //

const (
	HEADER_LEN                  int = 512 // length of CFB file header, in bytes
	DIR_ENTRY_LEN               int = 128 // length of directory entry, in bytes
	DIR_NAME_LEN                int = 64  // UTF-16 name field of a directory entry, in bytes
	NUM_DIFAT_ENTRIES_IN_HEADER int = 109
)

// Constants for CFB file header values:
var MAGIC_NUMBER = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

const (
	MINOR_VERSION      uint16 = 0x3e
	BYTE_ORDER_MARK    uint16 = 0xfffe
	MINI_SECTOR_SHIFT  uint16 = 6 // 64-byte mini sectors
	MINI_SECTOR_LEN    int    = 1 << (MINI_SECTOR_SHIFT)
	MINI_STREAM_CUTOFF uint32 = 4096
	MIN_SECTOR_SHIFT   uint16 = 7
	MAX_SECTOR_SHIFT   uint16 = 16
)

// Header field offsets.
const (
	offMajorVersion       = 26
	offByteOrder          = 28
	offSectorShift        = 30
	offMiniSectorShift    = 32
	offNumDirSectors      = 40
	offNumFatSectors      = 44
	offFirstDirSector     = 48
	offMiniStreamCutoff   = 56
	offFirstMinifatSector = 60
	offNumMinifatSectors  = 64
	offFirstDifatSector   = 68
	offNumDifatSectors    = 72
	offDifat              = 76
)

// Constants for FAT entries. The FAT is the SAT of the compound document
// format and the DIFAT its master table (MSAT).
const (
	MAX_REGULAR_SECTOR uint32 = 0xfffffffa
	INVALID_SECTOR     uint32 = 0xfffffffb
	DIFAT_SECTOR       uint32 = 0xfffffffc // -4
	FAT_SECTOR         uint32 = 0xfffffffd // -3
	END_OF_CHAIN       uint32 = 0xfffffffe // -2
	FREE_SECTOR        uint32 = 0xffffffff // -1
)

// Constants for directory entries:
const (
	ROOT_DIR_NAME               = "Root Entry"
	OBJ_TYPE_UNALLOCATED  uint8  = 0
	OBJ_TYPE_STORAGE      uint8  = 1
	OBJ_TYPE_STREAM       uint8  = 2
	OBJ_TYPE_ROOT         uint8  = 5
	COLOR_RED             uint8  = 0
	COLOR_BLACK           uint8  = 1
	ROOT_STREAM_ID        uint32 = 0
	MAX_REGULAR_STREAM_ID uint32 = 0xfffffffa
	NO_STREAM             uint32 = 0xffffffff
)
