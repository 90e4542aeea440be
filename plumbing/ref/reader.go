package ref

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

const (
	headsPrefix   = "refs/heads/"
	remotesPrefix = "refs/remotes/"
	tagsPrefix    = "refs/tags/"
	symrefPrefix  = "ref: "
)

// Reader reads the reference namespace of a single repository rooted at
// gitDir (normally ".git") on fs.
type Reader struct {
	fs     billy.Filesystem
	gitDir string
}

// NewReader builds a Reader over the given filesystem and git directory.
func NewReader(fs billy.Filesystem, gitDir string) *Reader {
	return &Reader{fs: fs, gitDir: gitDir}
}

// HEAD resolves the repository's HEAD to a commit hash. It follows a
// symbolic HEAD (preferring a loose ref, falling back to packed-refs) or
// parses a detached 40-hex hash directly. ok is false for an unborn
// branch, never an error.
func (r *Reader) HEAD() (id hash.ID, ok bool, err error) {
	content, err := r.readFile(r.join(r.gitDir, "HEAD"))
	if err != nil {
		if isNotExist(err) {
			return hash.ID{}, false, nil
		}
		return hash.ID{}, false, fmt.Errorf("ref: reading HEAD: %w", err)
	}

	trimmed := strings.TrimSpace(string(content))
	if strings.HasPrefix(trimmed, symrefPrefix) {
		target := strings.TrimSpace(trimmed[len(symrefPrefix):])
		return r.resolveRefName(target)
	}

	parsed, perr := hash.FromHex(trimmed)
	if perr != nil {
		return hash.ID{}, false, nil
	}
	return parsed, true, nil
}

// HeadBranch returns the branch name HEAD points to symbolically, or
// ok=false if HEAD is detached or unborn.
func (r *Reader) HeadBranch() (name string, ok bool, err error) {
	content, err := r.readFile(r.join(r.gitDir, "HEAD"))
	if err != nil {
		if isNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ref: reading HEAD: %w", err)
	}

	trimmed := strings.TrimSpace(string(content))
	if !strings.HasPrefix(trimmed, symrefPrefix) {
		return "", false, nil
	}
	target := strings.TrimSpace(trimmed[len(symrefPrefix):])
	if !strings.HasPrefix(target, headsPrefix) {
		return "", false, nil
	}
	return strings.TrimPrefix(target, headsPrefix), true, nil
}

// resolveRefName resolves a full ref name (e.g. "refs/heads/main") to a
// hash, trying loose refs first and packed-refs second.
func (r *Reader) resolveRefName(target string) (hash.ID, bool, error) {
	content, err := r.readFile(r.join(r.gitDir, target))
	if err == nil {
		parsed, perr := hash.FromHex(strings.TrimSpace(string(content)))
		if perr != nil {
			return hash.ID{}, false, nil
		}
		return parsed, true, nil
	}
	if !isNotExist(err) {
		return hash.ID{}, false, fmt.Errorf("ref: reading %s: %w", target, err)
	}

	packed, err := r.readPackedRefs()
	if err != nil {
		return hash.ID{}, false, err
	}
	for _, p := range packed {
		if p.name == target {
			return p.id, true, nil
		}
	}
	return hash.ID{}, false, nil
}

// Refs returns every local branch, remote branch and tag ref, merging
// loose refs with packed-refs (loose wins on name collision).
func (r *Reader) Refs() ([]Ref, error) {
	byName := make(map[string]Ref)

	for dir, typ := range map[string]Type{
		headsPrefix:   LocalBranch,
		remotesPrefix: RemoteBranch,
		tagsPrefix:    Tag,
	} {
		found, err := r.walkLoose(r.join(r.gitDir, dir), "", typ)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			byName[dir+f.Name] = f
		}
	}

	packed, err := r.readPackedRefs()
	if err != nil {
		return nil, err
	}
	for _, p := range packed {
		if _, exists := byName[p.name]; exists {
			continue
		}
		typ, name, ok := classify(p.name)
		if !ok {
			continue
		}
		byName[p.name] = Ref{Name: name, Hash: p.id, Type: typ}
	}

	refs := make([]Ref, 0, len(byName))
	for _, v := range byName {
		refs = append(refs, v)
	}
	return refs, nil
}

func classify(fullName string) (Type, string, bool) {
	switch {
	case strings.HasPrefix(fullName, headsPrefix):
		return LocalBranch, strings.TrimPrefix(fullName, headsPrefix), true
	case strings.HasPrefix(fullName, remotesPrefix):
		return RemoteBranch, strings.TrimPrefix(fullName, remotesPrefix), true
	case strings.HasPrefix(fullName, tagsPrefix):
		return Tag, strings.TrimPrefix(fullName, tagsPrefix), true
	default:
		return 0, "", false
	}
}

func (r *Reader) walkLoose(dir, prefix string, typ Type) ([]Ref, error) {
	var out []Ref
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ref: listing %s: %w", dir, err)
	}

	for _, entry := range entries {
		full := r.join(dir, entry.Name())
		if entry.IsDir() {
			sub, err := r.walkLoose(full, prefix+entry.Name()+"/", typ)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}

		content, err := r.readFile(full)
		if err != nil {
			return nil, fmt.Errorf("ref: reading %s: %w", full, err)
		}
		id, perr := hash.FromHex(strings.TrimSpace(string(content)))
		if perr != nil {
			continue
		}
		out = append(out, Ref{Name: prefix + entry.Name(), Hash: id, Type: typ})
	}
	return out, nil
}

type packedRef struct {
	name string
	id   hash.ID
}

// readPackedRefs parses packed-refs: comment and blank lines are skipped;
// each ref line is "<hash> <full-refname>"; a following line beginning
// with "^<hash>" peels the previous ref, replacing its hash with the
// dereferenced commit (used for annotated tags).
func (r *Reader) readPackedRefs() ([]packedRef, error) {
	content, err := r.readFile(r.join(r.gitDir, "packed-refs"))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ref: reading packed-refs: %w", err)
	}

	var out []packedRef
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '^' {
			peeled, perr := hash.FromHex(strings.TrimSpace(line[1:]))
			if perr != nil || len(out) == 0 {
				continue
			}
			out[len(out)-1].id = peeled
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		id, perr := hash.FromHex(fields[0])
		if perr != nil {
			continue
		}
		out = append(out, packedRef{name: fields[1], id: id})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ref: scanning packed-refs: %w", err)
	}
	return out, nil
}

// Stashes parses logs/refs/stash. Each line is
// "<old> <new> <name> <email> <unix-ts> <tz>\t<message>". The file is
// newest-first by index: the last line in the file is index 0.
func (r *Reader) Stashes() ([]Stash, error) {
	content, err := r.readFile(r.join(r.gitDir, "logs", "refs", "stash"))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ref: reading stash reflog: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ref: scanning stash reflog: %w", err)
	}

	out := make([]Stash, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		st, ok := parseStashLine(lines[i])
		if !ok {
			continue
		}
		st.Index = len(lines) - 1 - i
		out = append(out, st)
	}
	return out, nil
}

func parseStashLine(line string) (Stash, bool) {
	tab := strings.IndexByte(line, '\t')
	var message string
	head := line
	if tab >= 0 {
		head = line[:tab]
		message = line[tab+1:]
	}

	fields := strings.Fields(head)
	if len(fields) < 6 {
		return Stash{}, false
	}
	newHash := fields[1]
	id, err := hash.FromHex(newHash)
	if err != nil {
		return Stash{}, false
	}

	gt := strings.IndexByte(head, '>')
	if gt < 0 || gt+1 >= len(head) {
		return Stash{}, false
	}
	rest := strings.Fields(head[gt+1:])
	if len(rest) < 1 {
		return Stash{}, false
	}
	ts, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return Stash{}, false
	}

	return Stash{ID: id, Message: message, Date: ts}, true
}

func (r *Reader) join(elems ...string) string {
	return path.Join(elems...)
}

func (r *Reader) readFile(name string) ([]byte, error) {
	f, err := r.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "does not exist")
}
