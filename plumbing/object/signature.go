package object

import (
	"fmt"
	"strconv"
)

// Signature is a named, timestamped actor recorded on a commit: its author
// or committer line. The raw Unix timestamp and timezone offset are kept
// apart rather than folded into a single *time.Time, so callers can
// re-render the exact original "+0200"-style offset instead of a
// normalized location.
type Signature struct {
	Name      string
	Email     string
	Timestamp int64
	TZ        string
}

// ParseSignature parses a trailer of the form
//
//	Name <email> 1700000000 +0200
//
// as found after the "author"/"committer" keyword in a commit object. It
// never fails outright: a malformed trailer yields a best-effort partial
// Signature, the same tolerance git itself has for slightly-off author
// lines.
func ParseSignature(line []byte) Signature {
	var sig Signature
	if len(line) == 0 {
		return sig
	}

	state := 'n' // n: name, e: email, t: timestamp, z: timezone
	from := 0
	for i := 0; ; i++ {
		var c byte
		end := i >= len(line)
		if !end {
			c = line[i]
		}

		switch state {
		case 'n':
			if c == '<' || end {
				if i > 0 {
					sig.Name = string(line[from : i-1])
				}
				state = 'e'
				from = i + 1
			}
		case 'e':
			if c == '>' || end {
				sig.Email = string(line[from:i])
				state = 't'
				from = i + 2 // skip "> "
			}
		case 't':
			if c == ' ' || end {
				if from <= i && from <= len(line) {
					if n, err := strconv.ParseInt(string(line[from:min(i, len(line))]), 10, 64); err == nil {
						sig.Timestamp = n
					}
				}
				state = 'z'
				from = i + 1
			}
		case 'z':
			if end && from <= len(line) {
				sig.TZ = string(line[from:i])
			}
		}

		if end {
			break
		}
	}

	return sig
}

// String renders the signature back in its on-disk form.
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.Timestamp, s.TZ)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
