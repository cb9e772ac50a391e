package samal

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

const eof = -1

// Range is a half-open byte offset range [Start, End) into a source buffer.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

func (r Range) Str(v []byte) string {
	return string(v[r.Start:r.End])
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

func (r Range) Len() int { return r.End - r.Start }

// Position is the triple (byte-offset, line, column) spec §3 requires on
// every parsed node. Line and column are 1-indexed; column counts runes.
type Position struct {
	Cursor int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is the source position of a parsed node: the Position of its start
// together with the half-open Range it covers.
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		if s.Start.Column == s.End.Column {
			return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
		}
		return fmt.Sprintf("%d:%d..%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d..%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

func (s Span) Range() Range { return Range{Start: s.Start.Cursor, End: s.End.Cursor} }

// LineIndex converts byte cursor offsets to line/column pairs in O(log n)
// after an O(n) construction pass, by caching the byte offset of every
// line start and binary searching it at lookup time.
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) Span(r Range) Span {
	return Span{Start: li.PositionAt(r.Start), End: li.PositionAt(r.End)}
}

func (li *LineIndex) PositionAt(cursor int) Position {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}

	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := li.lineStart[lineIdx]
	col := utf8.RuneCount(li.input[lineStart:cursor]) + 1

	return Position{Cursor: cursor, Line: lineIdx + 1, Column: col}
}
