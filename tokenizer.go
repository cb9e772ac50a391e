package samal

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Tokenizer owns an immutable source buffer. It is stateless apart from
// that buffer: every operation takes a cursor and returns a new one, so
// concurrent read-only parses over the same Tokenizer are safe (spec §4.A).
type Tokenizer struct {
	source []byte
	lines  *LineIndex
}

func NewTokenizer(source []byte) *Tokenizer {
	return &Tokenizer{source: source, lines: NewLineIndex(source)}
}

func (t *Tokenizer) Len() int { return len(t.source) }

func (t *Tokenizer) IsEmpty(cursor int) bool {
	return t.SkipWhitespace(cursor) >= len(t.source)
}

func (t *Tokenizer) Position(cursor int) Position {
	return t.lines.PositionAt(cursor)
}

func (t *Tokenizer) Span(r Range) Span {
	return t.lines.Span(r)
}

// WSMode controls how aggressively whitespace is skipped around a terminal,
// per spec §3's WhitespaceMode node.
type WSMode int

const (
	WSSkip           WSMode = iota // default: skip spaces/tabs/newlines
	WSNoSkip                       // do not skip at all
	WSForceSkip                   // skip even where the enclosing mode said not to
	WSSkipNoNewlines               // skip spaces/tabs but not newlines
)

func isHSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\r' }

// SkipWhitespace advances cursor past whitespace runes according to mode.
func (t *Tokenizer) SkipWhitespace(cursor int) int {
	return t.skipWhitespaceMode(cursor, WSSkip)
}

func (t *Tokenizer) skipWhitespaceMode(cursor int, mode WSMode) int {
	if mode == WSNoSkip {
		return cursor
	}
	for cursor < len(t.source) {
		r, size := utf8.DecodeRune(t.source[cursor:])
		if mode == WSSkipNoNewlines {
			if !isHSpace(r) {
				break
			}
		} else if !unicode.IsSpace(r) {
			break
		}
		cursor += size
	}
	return cursor
}

// MatchString skips whitespace, then compares the next len(s) bytes to s.
// On match it returns the new cursor (past s and any trailing whitespace
// skipped per mode) and true; on mismatch it returns the original cursor
// unchanged and false.
func (t *Tokenizer) MatchString(cursor int, s string, mode WSMode) (int, bool) {
	c := t.skipWhitespaceMode(cursor, mode)
	if c+len(s) > len(t.source) {
		return cursor, false
	}
	if string(t.source[c:c+len(s)]) != s {
		return cursor, false
	}
	c += len(s)
	return t.skipWhitespaceMode(c, mode), true
}

// MatchRegex matches a left-anchored regex at cursor (after skipping
// whitespace per mode) and returns the new cursor plus the matched text.
func (t *Tokenizer) MatchRegex(cursor int, re *regexp.Regexp, mode WSMode) (int, string, bool) {
	c := t.skipWhitespaceMode(cursor, mode)
	loc := re.FindIndex(t.source[c:])
	if loc == nil || loc[0] != 0 {
		return cursor, "", false
	}
	matched := string(t.source[c : c+loc[1]])
	c += loc[1]
	return t.skipWhitespaceMode(c, mode), matched, true
}

// SnippetFrom returns a diagnostic snippet from cursor up to the next
// whitespace rune or end of input, used by UNMATCHED_STRING/UNMATCHED_REGEX
// failure reasons (spec §4.B/C).
func (t *Tokenizer) SnippetFrom(cursor int) string {
	end := cursor
	for end < len(t.source) {
		r, size := utf8.DecodeRune(t.source[end:])
		if unicode.IsSpace(r) {
			break
		}
		end += size
	}
	if end == cursor && cursor < len(t.source) {
		_, size := utf8.DecodeRune(t.source[cursor:])
		end = cursor + size
	}
	return string(t.source[cursor:end])
}
