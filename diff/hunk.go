// Package diff produces and consumes unified diffs: line/word-level hunks
// suitable for driving hunk-granularity staging decisions, and patch text
// compatible with `git apply`.
package diff

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrFileTooLarge is returned when either input exceeds maxDiffSize.
var ErrFileTooLarge = errors.New("diff: file too large")

const (
	maxDiffSize     = 1 << 20 // 1 MiB
	binarySniffLen  = 8 << 10
	wordDiffMaxLine = 500
	defaultContext  = 3
)

// LineType classifies a DiffLine within a hunk.
type LineType int8

const (
	Unchanged LineType = iota
	Added
	Removed
)

// Segment is a run of text within a DiffLine, optionally marked as the
// part that differs from its counterpart on the opposite side of a
// modified-line pair.
type Segment struct {
	Text          string
	IsHighlighted bool
}

// DiffLine is one line of a hunk's body.
type DiffLine struct {
	Type     LineType
	Segments []Segment
}

// Text reassembles the line's full text from its segments.
func (l DiffLine) Text() string {
	var b strings.Builder
	for _, seg := range l.Segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Hunk is a contiguous run of changed lines plus surrounding context,
// with a unified-diff style header.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Header             string
	Lines              []DiffLine
	HasNoNewlineAtEnd  bool
}

// FormatHeader renders the "@@ -old_start,old_count +new_start,new_count @@"
// header from the hunk's line counts.
func (h Hunk) FormatHeader() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// Reverse swaps the old/new sides of h: context lines are unchanged,
// Added becomes Removed and vice versa, and the header's two halves swap.
// reverse(reverse(h)) reproduces h's header and line prefixes.
func Reverse(h Hunk) Hunk {
	out := Hunk{
		OldStart:          h.NewStart,
		OldCount:          h.NewCount,
		NewStart:          h.OldStart,
		NewCount:          h.OldCount,
		HasNoNewlineAtEnd: h.HasNoNewlineAtEnd,
		Lines:             make([]DiffLine, len(h.Lines)),
	}
	for i, l := range h.Lines {
		typ := l.Type
		switch typ {
		case Added:
			typ = Removed
		case Removed:
			typ = Added
		}
		out.Lines[i] = DiffLine{Type: typ, Segments: l.Segments}
	}
	out.Header = out.FormatHeader()
	return out
}

// IsBinary reports whether b (normally the first 8 KiB of a file) looks
// like binary content: any NUL byte.
func IsBinary(b []byte) bool {
	if len(b) > binarySniffLen {
		b = b[:binarySniffLen]
	}
	return bytes.IndexByte(b, 0) >= 0
}

func binaryHunk() Hunk {
	return Hunk{
		Header: "@@ Binary files differ @@",
		Lines: []DiffLine{
			{Type: Unchanged, Segments: []Segment{{Text: "Binary files differ"}}},
		},
	}
}

// GenerateHunks computes the unified diff between old and new, grouping
// changes into hunks with contextLines of surrounding unchanged context
// (contextLines <= 0 defaults to 3).
func GenerateHunks(old, new string, contextLines int) ([]Hunk, error) {
	if old == new {
		return nil, nil
	}
	if contextLines <= 0 {
		contextLines = defaultContext
	}
	if len(old) > maxDiffSize || len(new) > maxDiffSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, max(len(old), len(new)))
	}
	if IsBinary([]byte(old)) || IsBinary([]byte(new)) {
		return []Hunk{binaryHunk()}, nil
	}

	entries := diffLines(old, new)
	entries = pairModified(entries)

	hunks := groupHunks(entries, contextLines)
	if n := len(hunks); n > 0 && (!strings.HasSuffix(old, "\n") || !strings.HasSuffix(new, "\n")) {
		hunks[n-1].HasNoNewlineAtEnd = true
	}
	return hunks, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type lineEntry struct {
	typ      LineType
	text     string
	pairWith *lineEntry // set on a Removed entry paired with its Added counterpart
}

// diffLines runs Myers' algorithm over old/new treated as sequences of
// whole lines, via diffmatchpatch's line-to-rune-array encoding.
func diffLines(old, new string) []lineEntry {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []lineEntry
	for _, d := range diffs {
		typ := Unchanged
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			typ = Added
		case diffmatchpatch.DiffDelete:
			typ = Removed
		}
		for _, line := range splitKeepLast(d.Text) {
			out = append(out, lineEntry{typ: typ, text: line})
		}
	}
	return out
}

// splitKeepLast splits s on "\n", dropping the final empty element
// produced when s itself ends in a newline (that element is not a real
// line, it is the terminator of the previous one).
func splitKeepLast(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// pairModified matches up adjacent runs of removed/added lines 1:1 so the
// hunk builder can request a word-level diff for each pair instead of
// whole-line segments.
func pairModified(entries []lineEntry) []lineEntry {
	out := make([]lineEntry, len(entries))
	copy(out, entries)

	i := 0
	for i < len(out) {
		if out[i].typ != Removed {
			i++
			continue
		}
		start := i
		for i < len(out) && out[i].typ == Removed {
			i++
		}
		removedRun := out[start:i]

		addStart := i
		for i < len(out) && out[i].typ == Added {
			i++
		}
		addedRun := out[addStart:i]

		n := len(removedRun)
		if len(addedRun) < n {
			n = len(addedRun)
		}
		for j := 0; j < n; j++ {
			removedRun[j].pairWith = &addedRun[j]
		}
	}
	return out
}

func groupHunks(entries []lineEntry, contextLines int) []Hunk {
	var hunks []Hunk

	var pending []lineEntry // unchanged lines not yet committed to a hunk
	var cur []DiffLine
	open := false
	oldLineNo, newLineNo := 1, 1
	hunkOldStart, hunkNewStart := 1, 1
	oldCount, newCount := 0, 0

	closeHunk := func() {
		if !open {
			return
		}
		h := Hunk{
			OldStart: hunkOldStart, OldCount: oldCount,
			NewStart: hunkNewStart, NewCount: newCount,
			Lines: cur,
		}
		h.Header = h.FormatHeader()
		hunks = append(hunks, h)
		cur = nil
		open = false
		oldCount, newCount = 0, 0
	}

	i := 0
	for i < len(entries) {
		e := entries[i]

		switch e.typ {
		case Unchanged:
			if open {
				pending = append(pending, e)
				oldLineNo++
				newLineNo++
				if len(pending) > 2*contextLines {
					trailing := pending[:contextLines]
					for _, t := range trailing {
						cur = append(cur, DiffLine{Type: Unchanged, Segments: []Segment{{Text: t.text}}})
						oldCount++
						newCount++
					}
					closeHunk()
					pending = pending[len(pending)-contextLines:]
				}
			} else {
				pending = append(pending, e)
				if len(pending) > contextLines {
					pending = pending[len(pending)-contextLines:]
				}
				oldLineNo++
				newLineNo++
			}
			i++

		case Removed:
			if !open {
				open = true
				hunkOldStart = oldLineNo - len(pending)
				hunkNewStart = newLineNo - len(pending)
				for _, ctx := range pending {
					cur = append(cur, DiffLine{Type: Unchanged, Segments: []Segment{{Text: ctx.text}}})
					oldCount++
					newCount++
				}
				pending = nil
			}
			if e.pairWith != nil {
				oldSegs, newSegs := wordSegments(e.text, e.pairWith.text)
				cur = append(cur, DiffLine{Type: Removed, Segments: oldSegs})
				oldCount++
				oldLineNo++
				cur = append(cur, DiffLine{Type: Added, Segments: newSegs})
				newCount++
				newLineNo++
				// skip the paired Added entry when we reach it
				i++
				for i < len(entries) && entries[i].typ == Added && samePointer(&entries[i], e.pairWith) {
					i++
				}
				continue
			}
			cur = append(cur, DiffLine{Type: Removed, Segments: []Segment{{Text: e.text}}})
			oldCount++
			oldLineNo++
			i++

		case Added:
			if !open {
				open = true
				hunkOldStart = oldLineNo - len(pending)
				hunkNewStart = newLineNo - len(pending)
				for _, ctx := range pending {
					cur = append(cur, DiffLine{Type: Unchanged, Segments: []Segment{{Text: ctx.text}}})
					oldCount++
					newCount++
				}
				pending = nil
			}
			cur = append(cur, DiffLine{Type: Added, Segments: []Segment{{Text: e.text}}})
			newCount++
			newLineNo++
			i++
		}
	}

	if open {
		n := len(pending)
		if n > contextLines {
			n = contextLines
		}
		for _, t := range pending[:n] {
			cur = append(cur, DiffLine{Type: Unchanged, Segments: []Segment{{Text: t.text}}})
			oldCount++
			newCount++
		}
	}
	closeHunk()
	return hunks
}

func samePointer(a, b *lineEntry) bool {
	return a == b
}

// wordSegments computes a word-level diff between a changed old/new line
// pair by running diffmatchpatch's character diff and its semantic cleanup
// pass, which merges small fragments onto word boundaries. Equal spans
// become unhighlighted segments on both sides; deletions highlight only
// the old side, insertions only the new. Lines over wordDiffMaxLine fall
// back to a single unhighlighted whole-line segment each.
func wordSegments(old, new string) (oldSegs, newSegs []Segment) {
	if len(old) > wordDiffMaxLine || len(new) > wordDiffMaxLine {
		return []Segment{{Text: old}}, []Segment{{Text: new}}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldSegs = append(oldSegs, Segment{Text: d.Text})
			newSegs = append(newSegs, Segment{Text: d.Text})
		case diffmatchpatch.DiffDelete:
			oldSegs = append(oldSegs, Segment{Text: d.Text, IsHighlighted: true})
		case diffmatchpatch.DiffInsert:
			newSegs = append(newSegs, Segment{Text: d.Text, IsHighlighted: true})
		}
	}
	return oldSegs, newSegs
}
