package samal

import (
	"fmt"
	"strings"

	"github.com/samal-lang/samal/ascii"
)

// MatchNode is the PEG evaluator's successful-parse output (spec §3 "Match
// tree"): a source range, the chosen Choice alternative (if this node came
// from a Choice), the rule callback's returned host value (if any), and the
// children mirroring the expression's own structure.
type MatchNode struct {
	Span        Span
	Expr        Expr
	Alternative int // -1 if not a Choice node
	Value       any // callback result, or nil
	Children    []*MatchNode
	RuleName    string // set on NonTerminal matches
}

func (m *MatchNode) Text(source []byte) string {
	r := m.Span.Range()
	return strings.TrimSpace(string(source[r.Start:r.End]))
}

// FailReason enumerates the failure-kind taxonomy from
// original_source/peg_parser/lib/PegParsingExpression.cpp, reused verbatim
// for the Go error tree so the ANSI color keying (below) matches reason for
// reason.
type FailReason int

const (
	ReasonUnmatchedString FailReason = iota
	ReasonUnmatchedRegex
	ReasonSequenceChildFailed
	ReasonChoiceNoChildSucceeded
	ReasonRequiredOneOrMore
	ReasonAdditionalErrorMessage
)

func (r FailReason) String() string {
	return [...]string{
		"UNMATCHED_STRING",
		"UNMATCHED_REGEX",
		"SEQUENCE_CHILD_FAILED",
		"CHOICE_NO_CHILD_SUCCEEDED",
		"REQUIRED_ONE_OR_MORE",
		"ADDITIONAL_ERROR_MESSAGE",
	}[r]
}

// FailInfo is the diagnostic payload carried by an ErrorNode: the failure
// reason, the failing expression's textual dump, and the cursor position
// of the failure (spec §3 "Error tree").
type FailInfo struct {
	Reason FailReason
	Expr   Expr
	Span   Span
	Text   string // extra text: snippet, annotation message, etc.
}

// ErrorNode mirrors the failed expression subtree (spec §3 "Error tree").
// Sequence/Choice nodes additionally carry every child's fail-info as
// diagnostic siblings, per §4.B/C.
type ErrorNode struct {
	Info     FailInfo
	Children []*ErrorNode
}

func newErrorNode(reason FailReason, expr Expr, span Span, text string, children ...*ErrorNode) *ErrorNode {
	return &ErrorNode{Info: FailInfo{Reason: reason, Expr: expr, Span: span, Text: text}, Children: children}
}

// reasonColor keys the ANSI theme by failure reason, grounded on the cyan/
// blue/red scheme PegParsingExpression.cpp's dump() embeds directly for
// SEQUENCE_CHILD_FAILED / CHOICE_NO_CHILD_SUCCEEDED / ADDITIONAL_ERROR_MESSAGE.
func reasonColor(r FailReason) string {
	switch r {
	case ReasonSequenceChildFailed:
		return ascii.Cyan
	case ReasonChoiceNoChildSucceeded:
		return ascii.Blue
	case ReasonAdditionalErrorMessage:
		return ascii.Red
	default:
		return ascii.DefaultTheme.Muted
	}
}

// Render renders the error tree as an ANSI-colored, indented, box-drawn
// tree (spec §4.B/C "Error rendering", §7). Descent stops at
// ADDITIONAL_ERROR_MESSAGE nodes: the annotation's own message is shown
// instead of recursing into its children, so user-provided messages
// dominate over the raw failure structure beneath them.
func (e *ErrorNode) Render(colored bool) string {
	var b strings.Builder
	e.render(&b, "", true, colored)
	return b.String()
}

func (e *ErrorNode) render(b *strings.Builder, prefix string, last bool, colored bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	line := fmt.Sprintf("%s @ %s: %s", e.Info.Reason, e.Info.Span, e.describe())
	if colored {
		line = ascii.Color(reasonColor(e.Info.Reason), "%s", line)
	}
	b.WriteString(prefix)
	b.WriteString(connector)
	b.WriteString(line)
	b.WriteString("\n")

	if e.Info.Reason == ReasonAdditionalErrorMessage {
		return
	}
	for i, c := range e.Children {
		c.render(b, childPrefix, i == len(e.Children)-1, colored)
	}
}

func (e *ErrorNode) describe() string {
	switch e.Info.Reason {
	case ReasonAdditionalErrorMessage:
		return e.Info.Text
	case ReasonUnmatchedString, ReasonUnmatchedRegex:
		return fmt.Sprintf("expected %s, found %q", e.Info.Expr.Dump(), e.Info.Text)
	default:
		return e.Info.Expr.Dump()
	}
}

// DeepestAdditionalMessage returns the text of the deepest
// ADDITIONAL_ERROR_MESSAGE node reachable from e, used by the end-to-end
// scenario in spec §8 ("deepest ADDITIONAL_ERROR_MESSAGE reads ...").
func (e *ErrorNode) DeepestAdditionalMessage() (string, bool) {
	var best string
	var found bool
	bestDepth := -1
	var walk func(n *ErrorNode, depth int)
	walk = func(n *ErrorNode, depth int) {
		if n.Info.Reason == ReasonAdditionalErrorMessage && depth > bestDepth {
			best, bestDepth, found = n.Info.Text, depth, true
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(e, 0)
	return best, found
}
