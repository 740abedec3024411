package mscfb

type ObjectType int

const (
	ObjEmpty ObjectType = iota
	ObjStorage
	ObjStream
	ObjRoot
	ObjUnknown
)

// ObjectFromByte maps the on-disk type byte. Values outside the format
// come back as ObjUnknown and are treated like empty slots by lookups.
func ObjectFromByte(b byte) ObjectType {
	switch b {
	case OBJ_TYPE_UNALLOCATED:
		return ObjEmpty
	case OBJ_TYPE_STORAGE:
		return ObjStorage
	case OBJ_TYPE_STREAM:
		return ObjStream
	case OBJ_TYPE_ROOT:
		return ObjRoot
	default:
		return ObjUnknown
	}
}

func (o ObjectType) String() string {
	switch o {
	case ObjEmpty:
		return "empty"
	case ObjStorage:
		return "storage"
	case ObjStream:
		return "stream"
	case ObjRoot:
		return "root"
	default:
		return "unknown"
	}
}

func (o ObjectType) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
