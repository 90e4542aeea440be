package object

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

type CommitSuite struct {
	suite.Suite
}

func TestCommitSuite(t *testing.T) {
	suite.Run(t, new(CommitSuite))
}

const commitFixture = `tree dbd3641b371024f44d0e469a9c8f5457b0660de1
parent 4c3c5cd7293b00a9bd13f69c2d03d6d7b73b6d0a
parent 7c7e0f4d4d4d0e9d9c9d6d9e0e9d9c9d6d9e0e9d
author John Doe <john@example.com> 1257894000 +0100
committer Jane Roe <jane@example.com> 1257894001 -0700

Fix the thing

This also fixes the other thing.
`

func (s *CommitSuite) TestParseCommit() {
	id := hash.MustFromHex("e0f1c6e4c5e8e5c6e4c5e8e5c6e4c5e8e5c6e4c5")
	c, err := ParseCommit(id, []byte(commitFixture))
	s.NoError(err)
	s.Equal(id, c.ID)
	s.Equal(hash.MustFromHex("dbd3641b371024f44d0e469a9c8f5457b0660de1"), c.TreeID)
	s.Len(c.ParentIDs, 2)
	s.True(c.IsMerge())
	s.Equal("John Doe", c.Author.Name)
	s.Equal("john@example.com", c.Author.Email)
	s.EqualValues(1257894000, c.Author.Timestamp)
	s.Equal("Jane Roe", c.Committer.Name)
	s.Equal("Fix the thing\n\nThis also fixes the other thing.\n", c.Message)
	s.Equal("Fix the thing", c.Title())
	s.Equal("This also fixes the other thing.", c.Body())
}

func (s *CommitSuite) TestTitleOnlyMessageHasEmptyBody() {
	c, err := ParseCommit(hash.Zero, []byte(`tree dbd3641b371024f44d0e469a9c8f5457b0660de1
author John Doe <john@example.com> 1257894000 +0100
committer John Doe <john@example.com> 1257894000 +0100

Initial commit
`))
	s.NoError(err)
	s.Equal("Initial commit", c.Title())
	s.Empty(c.Body())
}

func (s *CommitSuite) TestNumParentsRoot() {
	body := `tree dbd3641b371024f44d0e469a9c8f5457b0660de1
author John Doe <john@example.com> 1257894000 +0100
committer John Doe <john@example.com> 1257894000 +0100

Initial commit
`
	c, err := ParseCommit(hash.Zero, []byte(body))
	s.NoError(err)
	s.Equal(0, c.NumParents())
	s.False(c.IsMerge())
}
