// Package merge plans the edit that places generated code inside a class,
// replacing the block a previous run left between the anchor markers.
package merge

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/naming"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/synth"
)

const (
	AnchorStart = "// @ui5-ts-codegen:start AUTO GENERATED - do not modify"
	AnchorEnd   = "// @ui5-ts-codegen:end"
)

const cleanupHint = "Try deleting the entire AUTO GENERATED region and then re-run this action."

var (
	ErrMissingEnd  = errors.New("not able to find end anchor in file")
	ErrAnchorOrder = errors.New("auto generated anchor start is after the closing of class")
)

// Kind distinguishes fresh insertions from regenerations.
type Kind int

const (
	Insert Kind = iota
	Replace
)

func (k Kind) String() string {
	if k == Replace {
		return "replace"
	}
	return "insert"
}

// Position is a zero-based line and byte column.
type Position struct {
	Line      int
	Character int
}

// Edit replaces the bytes [StartOffset, EndOffset) of a document with Text.
// Start and End are the same range as line/column positions.
type Edit struct {
	Kind        Kind
	Start       Position
	End         Position
	StartOffset int
	EndOffset   int
	Text        string
}

// Strategy decides how far a replacement reaches.
type Strategy string

const (
	// LineCount replaces as many lines from the start marker as the new
	// block has. Hand edits that change the region's height are not
	// accounted for.
	LineCount Strategy = "line-count"
	// EndMarker replaces through the line holding the previous end marker.
	EndMarker Strategy = "end-marker"
)

// Planner computes edits.
type Planner struct {
	Strategy Strategy
}

// Plan computes the edit for region with the default line-count strategy.
func Plan(text string, region model.Region) (Edit, error) {
	return Planner{Strategy: LineCount}.Plan(text, region)
}

// Block indents content by the spacer and wraps it in the anchor markers.
func Block(content string) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(synth.Spacer + AnchorStart + "\n")
	b.WriteString(indent(content))
	b.WriteString("\n\n")
	b.WriteString(synth.Spacer + AnchorEnd + "\n")
	return b.String()
}

func indent(content string) string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = synth.Spacer + l
		}
	}
	return strings.Join(lines, "\n")
}

// Plan computes the edit that brings text up to date with region. The
// document is never touched; a failed plan leaves it as it was.
func (p Planner) Plan(text string, region model.Region) (Edit, error) {
	block := Block(region.Content)
	start := strings.Index(text, AnchorStart)
	if start < 0 {
		at := region.Pos + 1
		if brace := region.End - 1; region.End > 0 && at > brace {
			at = brace
		}
		if at > len(text) {
			at = len(text)
		}
		pos := PositionAt(text, at)
		return Edit{Kind: Insert, Start: pos, End: pos, StartOffset: at, EndOffset: at, Text: block}, nil
	}

	endMarker := strings.Index(text[start:], AnchorEnd)
	if endMarker < 0 {
		return Edit{}, errors.WithHint(ErrMissingEnd, cleanupHint)
	}
	if region.Pos < start {
		return Edit{}, errors.WithHint(ErrAnchorOrder, cleanupHint)
	}

	// The replacement starts at column 0 of the marker's line and carries
	// its own indentation.
	replacement := strings.TrimLeft(block, "\n")
	from := Position{Line: PositionAt(text, start).Line}

	var to Position
	switch p.Strategy {
	case EndMarker:
		to = Position{Line: PositionAt(text, start+endMarker).Line + 1}
	default:
		to = Position{Line: from.Line + naming.CountOccurrences(replacement, "\n")}
	}

	startOff := OffsetAt(text, from)
	endOff := OffsetAt(text, to)
	return Edit{
		Kind:        Replace,
		Start:       from,
		End:         PositionAt(text, endOff),
		StartOffset: startOff,
		EndOffset:   endOff,
		Text:        replacement,
	}, nil
}

// Apply returns text with e applied.
func Apply(text string, e Edit) (string, error) {
	if e.StartOffset < 0 || e.EndOffset < e.StartOffset || e.EndOffset > len(text) {
		return "", errors.Newf("edit range [%d, %d) outside document of %d bytes", e.StartOffset, e.EndOffset, len(text))
	}
	return text[:e.StartOffset] + e.Text + text[e.EndOffset:], nil
}

// PositionAt converts a byte offset into a line and byte column. Offsets
// past the end clamp to the end of the document.
func PositionAt(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	line := strings.Count(text[:offset], "\n")
	col := offset - (strings.LastIndexByte(text[:offset], '\n') + 1)
	return Position{Line: line, Character: col}
}

// OffsetAt converts a position into a byte offset. Lines past the end
// clamp to the end of the document; columns clamp to the end of the line.
func OffsetAt(text string, pos Position) int {
	off := 0
	for i := 0; i < pos.Line; i++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}
	lineEnd := len(text)
	if nl := strings.IndexByte(text[off:], '\n'); nl >= 0 {
		lineEnd = off + nl
	}
	if off+pos.Character > lineEnd {
		return lineEnd
	}
	return off + pos.Character
}

// SameIgnoringStamp reports whether a and b differ at most in their
// generation timestamps.
func SameIgnoringStamp(a, b string) bool {
	return synth.StripStamp(a) == synth.StripStamp(b)
}
