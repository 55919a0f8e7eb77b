package types

import (
	"fmt"
	"unsafe"
)

// ByteRange is a half-open byte interval [Start, End) into a source text.
type ByteRange struct {
	Start uint32
	End   uint32
}

func NewByteRange(start, end uint32) ByteRange {
	return ByteRange{Start: start, End: end}
}

func (r ByteRange) Len() uint32 { return r.End - r.Start }

// Contains reports whether other lies fully inside r.
func (r ByteRange) Contains(other ByteRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// CodeRange is a byte range tied to one specific source text.
//
// Address identifies the backing source string, so two ranges with equal
// offsets into different files never compare equal. It is safe to use as a
// map key.
type CodeRange struct {
	Start   uint32
	End     uint32
	Address uintptr
}

// NewCodeRange creates a CodeRange over src.
func NewCodeRange(start, end uint32, src string) CodeRange {
	return CodeRange{
		Start:   start,
		End:     end,
		Address: sourceAddress(src),
	}
}

// AppliesTo reports whether the range was created for the given source text.
func (r CodeRange) AppliesTo(src string) bool {
	return r.Address == sourceAddress(src)
}

func (r CodeRange) ByteRange() ByteRange {
	return ByteRange{Start: r.Start, End: r.End}
}

func sourceAddress(src string) uintptr {
	return uintptr(unsafe.Pointer(unsafe.StringData(src)))
}

// Position is a 1-based line/column location.
type Position struct {
	Line   uint32
	Column uint32
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range is a human-facing source location, used for match reports.
type Range struct {
	Start     Position
	End       Position
	StartByte uint32
	EndByte   uint32
}

func (r Range) ByteRange() ByteRange {
	return ByteRange{Start: r.StartByte, End: r.EndByte}
}
