package diff

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedHunkHeader is returned when a "@@ ... @@" line cannot be
// parsed.
var ErrMalformedHunkHeader = fmt.Errorf("diff: malformed hunk header")

// Parse consumes the textual output of `git diff` (or GeneratePatch) and
// rebuilds the same Hunk model, running the word-diff enhancement on
// consecutive removed+added line pairs.
func Parse(text string) ([]Hunk, error) {
	var hunks []Hunk
	var cur *Hunk

	flush := func() {
		if cur != nil {
			cur.Lines = pairAndHighlight(cur.Lines)
			hunks = append(hunks, *cur)
			cur = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "),
			strings.HasPrefix(line, "--- "),
			strings.HasPrefix(line, "+++ "),
			strings.HasPrefix(line, "index "):
			continue

		case strings.HasPrefix(line, "@@ "):
			flush()
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			cur = &h

		case strings.HasPrefix(line, "\\ No newline at end of file"):
			if cur != nil {
				cur.HasNoNewlineAtEnd = true
			}

		case cur != nil && len(line) > 0:
			typ := Unchanged
			switch line[0] {
			case '+':
				typ = Added
			case '-':
				typ = Removed
			}
			cur.Lines = append(cur.Lines, DiffLine{Type: typ, Segments: []Segment{{Text: line[1:]}}})

		case cur != nil:
			cur.Lines = append(cur.Lines, DiffLine{Type: Unchanged, Segments: []Segment{{Text: ""}}})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("diff: scanning patch: %w", err)
	}
	flush()

	return hunks, nil
}

// parseHunkHeader parses "@@ -old_start,old_count +new_start,new_count @@"
// (the ",count" part is optional and defaults to 1, matching unified diff).
func parseHunkHeader(line string) (Hunk, error) {
	inner := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(inner, "@@")
	if end < 0 {
		return Hunk{}, ErrMalformedHunkHeader
	}
	inner = strings.TrimSpace(inner[:end])
	fields := strings.Fields(inner)
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return Hunk{}, ErrMalformedHunkHeader
	}

	oldStart, oldCount, err := parseRange(fields[0][1:])
	if err != nil {
		return Hunk{}, err
	}
	newStart, newCount, err := parseRange(fields[1][1:])
	if err != nil {
		return Hunk{}, err
	}

	h := Hunk{OldStart: oldStart, OldCount: oldCount, NewStart: newStart, NewCount: newCount}
	h.Header = h.FormatHeader()
	return h, nil
}

func parseRange(s string) (start, count int, err error) {
	parts := strings.SplitN(s, ",", 2)
	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedHunkHeader, s)
	}
	count = 1
	if len(parts) == 2 {
		count, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrMalformedHunkHeader, s)
		}
	}
	return start, count, nil
}

// pairAndHighlight runs the word-diff enhancement over consecutive
// Removed+Added line runs, pairing lines by position up to the length of
// the shorter run and replacing their whole-line segments with per-word
// highlighted ones.
func pairAndHighlight(lines []DiffLine) []DiffLine {
	out := make([]DiffLine, len(lines))
	copy(out, lines)

	i := 0
	for i < len(out) {
		if out[i].Type != Removed {
			i++
			continue
		}
		start := i
		for i < len(out) && out[i].Type == Removed {
			i++
		}
		removedRun := start

		addStart := i
		for i < len(out) && out[i].Type == Added {
			i++
		}

		n := i - addStart
		if removedN := addStart - removedRun; n > removedN {
			n = removedN
		}
		for j := 0; j < n; j++ {
			oldSegs, newSegs := wordSegments(out[removedRun+j].Text(), out[addStart+j].Text())
			out[removedRun+j].Segments = oldSegs
			out[addStart+j].Segments = newSegs
		}
	}
	return out
}
