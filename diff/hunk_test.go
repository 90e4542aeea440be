package diff_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/diff"
)

type HunkSuite struct {
	suite.Suite
}

func TestHunkSuite(t *testing.T) {
	suite.Run(t, new(HunkSuite))
}

func (s *HunkSuite) TestIdenticalYieldsNoHunks() {
	hunks, err := diff.GenerateHunks("a\nb\nc\n", "a\nb\nc\n", 3)
	s.NoError(err)
	s.Empty(hunks)
}

func (s *HunkSuite) TestEmptyBothYieldsNoHunks() {
	hunks, err := diff.GenerateHunks("", "", 3)
	s.NoError(err)
	s.Empty(hunks)
}

func (s *HunkSuite) TestFileTooLarge() {
	big := strings.Repeat("a", (1<<20)+1)
	_, err := diff.GenerateHunks(big, "b", 3)
	s.ErrorIs(err, diff.ErrFileTooLarge)
}

func (s *HunkSuite) TestBinaryDetection() {
	old := "a\x00b"
	hunks, err := diff.GenerateHunks(old, "a\x00c", 3)
	s.Require().NoError(err)
	s.Require().Len(hunks, 1)
	s.Contains(hunks[0].Header, "Binary")
}

func (s *HunkSuite) TestLineAndWordDiffHeader() {
	old := "Line 1\nLine 2\nLine 3\n"
	new := "Line 1\nModified Line 2\nLine 3\n"

	hunks, err := diff.GenerateHunks(old, new, 3)
	s.Require().NoError(err)
	s.Require().Len(hunks, 1)

	h := hunks[0]
	s.Equal("@@ -1,3 +1,3 @@", h.Header)

	var sawRemoved, sawAdded bool
	for _, line := range h.Lines {
		switch line.Type {
		case diff.Removed:
			sawRemoved = true
			s.Contains(line.Text(), "Line 2")
		case diff.Added:
			sawAdded = true
			s.Contains(line.Text(), "Modified")
		}
	}
	s.True(sawRemoved)
	s.True(sawAdded)
}

func (s *HunkSuite) TestHeaderCountsMatchLineKinds() {
	old := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"
	new := "1\n2\n3\nX\n5\n6\n7\n8\n9\n10\n"

	hunks, err := diff.GenerateHunks(old, new, 3)
	s.Require().NoError(err)
	for _, h := range hunks {
		var unchanged, removed, added int
		for _, l := range h.Lines {
			switch l.Type {
			case diff.Unchanged:
				unchanged++
			case diff.Removed:
				removed++
			case diff.Added:
				added++
			}
		}
		s.Equal(unchanged+removed, h.OldCount)
		s.Equal(unchanged+added, h.NewCount)
	}
}

func (s *HunkSuite) TestReverseIsInvolution() {
	hunks, err := diff.GenerateHunks("a\nb\nc\n", "a\nX\nc\n", 3)
	s.Require().NoError(err)
	s.Require().Len(hunks, 1)

	reversed := diff.Reverse(hunks[0])
	twice := diff.Reverse(reversed)
	s.Equal(hunks[0].Header, twice.Header)
	for i := range hunks[0].Lines {
		s.Equal(hunks[0].Lines[i].Type, twice.Lines[i].Type)
	}
}

func (s *HunkSuite) TestMissingTrailingNewlineMarked() {
	hunks, err := diff.GenerateHunks("a\nb\n", "a\nc", 3)
	s.Require().NoError(err)
	s.Require().NotEmpty(hunks)
	s.True(hunks[len(hunks)-1].HasNoNewlineAtEnd)
}
