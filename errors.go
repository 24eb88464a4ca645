package fat12

import "fmt"

// Kind classifies the errors this package can return. Callers should use
// errors.Is against an *Error carrying the wanted Kind (see Error.Is), or
// errors.As into an *Error, rather than type-asserting the returned error,
// since an error may be wrapped by checkpoint.
type Kind int

const (
	KindNotFound Kind = iota
	KindExists
	KindBadName
	KindBadImage
	KindUnsupportedGeometry
	KindNoSpace
	KindDirFull
	KindDirNotEmpty
	KindNotADirectory
	KindIsADirectory
	KindCorruptDirectory
	KindBadChain
	KindBadCluster
	KindBadSize
	KindOutOfRange
	KindInvalidated
	KindReadOnly
	KindCorruptFAT
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindExists:
		return "Exists"
	case KindBadName:
		return "BadName"
	case KindBadImage:
		return "BadImage"
	case KindUnsupportedGeometry:
		return "UnsupportedGeometry"
	case KindNoSpace:
		return "NoSpace"
	case KindDirFull:
		return "DirFull"
	case KindDirNotEmpty:
		return "DirNotEmpty"
	case KindNotADirectory:
		return "NotADirectory"
	case KindIsADirectory:
		return "IsADirectory"
	case KindCorruptDirectory:
		return "CorruptDirectory"
	case KindBadChain:
		return "BadChain"
	case KindBadCluster:
		return "BadCluster"
	case KindBadSize:
		return "BadSize"
	case KindOutOfRange:
		return "OutOfRange"
	case KindInvalidated:
		return "Invalidated"
	case KindReadOnly:
		return "ReadOnly"
	case KindCorruptFAT:
		return "CorruptFAT"
	default:
		return "Unknown"
	}
}

// Error is a tagged error value: a Kind plus a human-readable detail and an
// optional path the error occurred on.
type Error struct {
	Kind   Kind
	Path   string
	Detail string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is makes Error comparable with errors.Is against another *Error of the
// same Kind, so callers can write errors.Is(err, &fat12.Error{Kind: fat12.KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind Kind, path, detail string) error {
	return &Error{Kind: kind, Path: path, Detail: detail}
}

func newErrf(kind Kind, path, format string, args ...interface{}) error {
	return &Error{Kind: kind, Path: path, Detail: fmt.Sprintf(format, args...)}
}
