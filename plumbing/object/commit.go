package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

// Commit points to a single tree, marking what the project looked like at a
// moment in time, plus the author/committer who produced it and zero or
// more parent commits.
type Commit struct {
	ID        hash.ID
	TreeID    hash.ID
	ParentIDs []hash.ID
	Author    Signature
	Committer Signature
	Message   string

	// Raw is the full inflated object body, kept around so callers can
	// re-derive PGP/SSH signature blocks or other trailers this reader
	// does not itself interpret.
	Raw []byte
}

// ParseCommit decodes the inflated body of a commit object. id is the
// caller-supplied object id (normally computed by the loose/pack reader,
// not recomputed here).
func ParseCommit(id hash.ID, body []byte) (*Commit, error) {
	c := &Commit{ID: id, Raw: body}

	r := bufio.NewReader(bytes.NewReader(body))
	inMessage := false
	var msg bytes.Buffer

	for {
		line, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading commit %s: %w", id, err)
		}
		if err == io.EOF && len(line) == 0 {
			break
		}

		trimmed := bytes.TrimRight(line, "\n")

		if !inMessage {
			if len(trimmed) == 0 {
				inMessage = true
				if err == io.EOF {
					break
				}
				continue
			}

			split := bytes.SplitN(trimmed, []byte{' '}, 2)
			if len(split) != 2 {
				if err == io.EOF {
					break
				}
				continue
			}

			switch string(split[0]) {
			case "tree":
				id, perr := hash.FromHex(string(split[1]))
				if perr != nil {
					return nil, fmt.Errorf("commit %s: bad tree line: %w", c.ID, perr)
				}
				c.TreeID = id
			case "parent":
				id, perr := hash.FromHex(string(split[1]))
				if perr != nil {
					return nil, fmt.Errorf("commit %s: bad parent line: %w", c.ID, perr)
				}
				c.ParentIDs = append(c.ParentIDs, id)
			case "author":
				c.Author = ParseSignature(split[1])
			case "committer":
				c.Committer = ParseSignature(split[1])
			}
		} else {
			msg.Write(trimmed)
			msg.WriteByte('\n')
		}

		if err == io.EOF {
			break
		}
	}

	c.Message = msg.String()
	return c, nil
}

// Title returns the first line of the commit message.
func (c *Commit) Title() string {
	msg := strings.TrimLeft(c.Message, "\n")
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return strings.TrimRight(msg, "\n")
}

// Body returns everything after the message's first blank line, with
// leading and trailing blank lines trimmed. A message with no blank line
// separator (a title-only commit) has an empty body.
func (c *Commit) Body() string {
	msg := strings.TrimLeft(c.Message, "\n")
	i := strings.Index(msg, "\n\n")
	if i < 0 {
		return ""
	}
	return strings.Trim(msg[i+2:], "\n")
}

// NumParents returns the number of parents of c: zero for the root commit,
// one for an ordinary commit, two or more for a merge.
func (c *Commit) NumParents() int {
	return len(c.ParentIDs)
}

// IsMerge reports whether c has more than one parent.
func (c *Commit) IsMerge() bool {
	return len(c.ParentIDs) > 1
}

func (c *Commit) String() string {
	return fmt.Sprintf("commit %s\nAuthor: %s\n\n%s", c.ID, c.Author, c.Message)
}
