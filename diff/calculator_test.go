package diff_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/diff"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

type CalculatorSuite struct {
	suite.Suite
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}

func h(hex string) hash.ID {
	id, err := hash.FromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}

func (s *CalculatorSuite) TestNoParentEverythingAdded() {
	current := map[string]hash.ID{
		"a.txt": h("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
	}
	result := diff.ComputeDiff(current, nil)
	s.Require().Len(result, 1)
	s.Equal(diff.Added, result["a.txt"].ChangeType)
}

func (s *CalculatorSuite) TestSameHashSkipped() {
	id := h("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	current := map[string]hash.ID{"a.txt": id}
	parent := map[string]hash.ID{"a.txt": id}
	result := diff.ComputeDiff(current, parent)
	s.Empty(result)
}

func (s *CalculatorSuite) TestDifferentHashModified() {
	current := map[string]hash.ID{"a.txt": h("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	parent := map[string]hash.ID{"a.txt": h("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")}
	result := diff.ComputeDiff(current, parent)
	s.Require().Len(result, 1)
	s.Equal(diff.Modified, result["a.txt"].ChangeType)
}

func (s *CalculatorSuite) TestDeletedPath() {
	current := map[string]hash.ID{}
	parent := map[string]hash.ID{"a.txt": h("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	result := diff.ComputeDiff(current, parent)
	s.Require().Len(result, 1)
	s.Equal(diff.Deleted, result["a.txt"].ChangeType)
}

func (s *CalculatorSuite) TestRenameDetection() {
	id := h("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	current := map[string]hash.ID{"new.txt": id}
	parent := map[string]hash.ID{"old.txt": id}
	result := diff.ComputeDiff(current, parent)
	s.Require().Len(result, 1)
	s.Equal(diff.Renamed, result["new.txt"].ChangeType)
	s.Equal("old.txt", result["new.txt"].OldPath)
}
