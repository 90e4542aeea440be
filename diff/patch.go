package diff

import "strings"

// GeneratePatch renders a hunk as `git apply`-compatible unified diff text
// for path, e.g. for staging (--cached) or discarding a single hunk.
func GeneratePatch(path string, h Hunk) string {
	var b strings.Builder
	b.WriteString("diff --git a/")
	b.WriteString(path)
	b.WriteString(" b/")
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString("--- a/")
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString("+++ b/")
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString(h.FormatHeader())
	b.WriteByte('\n')

	for _, line := range h.Lines {
		b.WriteByte(linePrefix(line.Type))
		b.WriteString(line.Text())
		b.WriteByte('\n')
	}
	if h.HasNoNewlineAtEnd {
		b.WriteString("\\ No newline at end of file\n")
	}
	return b.String()
}

// GenerateReversePatch renders the reverse of h (see Reverse), used for
// unstage (with --cached) and discard (without).
func GenerateReversePatch(path string, h Hunk) string {
	return GeneratePatch(path, Reverse(h))
}

func linePrefix(t LineType) byte {
	switch t {
	case Added:
		return '+'
	case Removed:
		return '-'
	default:
		return ' '
	}
}
