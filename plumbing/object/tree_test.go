package object

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/plumbing/filemode"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

type TreeSuite struct {
	suite.Suite
}

func TestTreeSuite(t *testing.T) {
	suite.Run(t, new(TreeSuite))
}

func buildTreeBody(entries []TreeEntry) []byte {
	var body []byte
	for _, e := range entries {
		body = append(body, []byte(e.Mode.String()+" "+e.Name)...)
		body = append(body, 0)
		body = append(body, e.ID.Bytes()...)
	}
	return body
}

func (s *TreeSuite) TestParseTree() {
	blobID := hash.MustFromHex("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	subID := hash.MustFromHex("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

	entries := []TreeEntry{
		{Name: "README.md", Mode: filemode.Regular, ID: blobID},
		{Name: "main.go", Mode: filemode.Regular, ID: blobID},
		{Name: "run.sh", Mode: filemode.Executable, ID: blobID},
		{Name: "src", Mode: filemode.Dir, ID: subID},
	}

	tr, err := ParseTree(hash.Zero, buildTreeBody(entries))
	s.NoError(err)
	s.Len(tr.Entries, 4)

	e, ok := tr.Entry("src")
	s.True(ok)
	s.Equal(filemode.TreeEntry, e.Kind())
	s.Equal(subID, e.ID)

	e, ok = tr.Entry("run.sh")
	s.True(ok)
	s.Equal(filemode.BlobEntry, e.Kind())

	_, ok = tr.Entry("missing")
	s.False(ok)
}

func (s *TreeSuite) TestParseTreeEmpty() {
	tr, err := ParseTree(hash.Zero, nil)
	s.NoError(err)
	s.Len(tr.Entries, 0)
}

func (s *TreeSuite) TestParseTreeMalformed() {
	_, err := ParseTree(hash.Zero, []byte("100644 onlyname"))
	s.Error(err)
}
