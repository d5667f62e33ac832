// Package diskimage reads, writes, creates and mutates CBM floppy-disk
// images: the geometry-driven header, BAM, directory and T/S-link chain
// model shared by the 1541/1571/1581 family, their IEEE-488 siblings
// (2040, 8050, 8250, 9030/60/90), and the optional X64 container.
package diskimage

import "github.com/pkg/errors"

// Kind classifies a DiskError the way callers need to branch on it.
// It mirrors the teacher's own practice of wrapping every I/O boundary with
// github.com/pkg/errors, generalized here into a typed taxonomy since this
// package's callers need to distinguish failure modes, not just log them.
type Kind int

const (
	// InvalidImage covers signature mismatches, truncated buffers, unknown
	// devices, and unparseable geometry.
	InvalidImage Kind = iota
	// GeometryErrorKind covers a requested (t,s) outside the addressable range.
	GeometryErrorKind
	// NameExists covers an alloc attempt on a filename already active in DIR.
	NameExists
	// NoFreeDirEntry covers a full directory with no room to grow.
	NoFreeDirEntry
	// NoFreeBlocks covers a BAM unable to satisfy a requested allocation count.
	NoFreeBlocks
	// DoubleAlloc covers a mark-used target that is already used.
	DoubleAlloc
	// NotFound covers a filename or index lookup miss.
	NotFound
	// IoError covers an underlying file read/write failure.
	IoError
)

func (k Kind) String() string {
	switch k {
	case InvalidImage:
		return "InvalidImage"
	case GeometryErrorKind:
		return "GeometryError"
	case NameExists:
		return "NameExists"
	case NoFreeDirEntry:
		return "NoFreeDirEntry"
	case NoFreeBlocks:
		return "NoFreeBlocks"
	case DoubleAlloc:
		return "DoubleAlloc"
	case NotFound:
		return "NotFound"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// DiskError is the error type every core operation returns on failure. It
// carries a Kind for errors.Is/errors.As-style branching plus an optional
// wrapped cause.
type DiskError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *DiskError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DiskError) Unwrap() error {
	return e.Cause
}

func newErr(kind Kind, message string) *DiskError {
	return &DiskError{Kind: kind, Message: message}
}

func wrapErr(kind Kind, message string, cause error) *DiskError {
	return &DiskError{Kind: kind, Message: message, Cause: errors.WithStack(cause)}
}

// Sentinel values so callers can errors.Is against a specific failure
// class without reaching into a DiskError's Kind field.
var (
	ErrInvalidImage  = newErr(InvalidImage, "invalid disk image")
	ErrGeometry      = newErr(GeometryErrorKind, "track/sector out of range")
	ErrNameExists    = newErr(NameExists, "filename already in use")
	ErrNoFreeDirSlot = newErr(NoFreeDirEntry, "directory is full")
	ErrNoFreeBlocks  = newErr(NoFreeBlocks, "not enough free blocks")
	ErrDoubleAlloc   = newErr(DoubleAlloc, "block already allocated")
	ErrNotFound      = newErr(NotFound, "not found")
	ErrIO            = newErr(IoError, "i/o error")
)

// Is lets errors.Is match a DiskError against one of the package sentinels
// purely by Kind, so wrapped instances still compare equal to the sentinel.
func (e *DiskError) Is(target error) bool {
	t, ok := target.(*DiskError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
