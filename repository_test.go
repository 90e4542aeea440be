package git

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	kzlib "github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/diff"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
	"github.com/brillcp/SwiftGit-sub000/worktree"
)

type RepositorySuite struct {
	suite.Suite
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func deflate(body []byte) []byte {
	var buf bytes.Buffer
	w := kzlib.NewWriter(&buf)
	w.Write(body)
	w.Close()
	return buf.Bytes()
}

func writeLoose(s *RepositorySuite, fs billy.Filesystem, typ object.Type, body []byte) hash.ID {
	id := object.NewHasher().Sum(typ, body)
	header := []byte(typ.String() + " " + itoaRepo(len(body)) + "\x00")
	content := append(header, body...)
	p := ".git/objects/" + id.String()[:2] + "/" + id.String()[2:]
	s.Require().NoError(util.WriteFile(fs, p, deflate(content), 0o644))
	return id
}

func itoaRepo(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func treeBody(entries ...[3]string) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		mode, name, idHex := e[0], e[1], e[2]
		id, _ := hash.FromHex(idHex)
		buf.WriteString(mode)
		buf.WriteByte(' ')
		buf.WriteString(name)
		buf.WriteByte(0)
		buf.Write(id[:])
	}
	return buf.Bytes()
}

// buildRepo creates a memfs repo with one blob, one tree and one root
// commit, returning the filesystem and the commit id.
func (s *RepositorySuite) buildRepo() (billy.Filesystem, hash.ID) {
	fs := memfs.New()

	blobID := writeLoose(s, fs, object.BlobObject, []byte("hello\n"))
	treeID := writeLoose(s, fs, object.TreeObject, treeBody([3]string{"100644", "a.txt", blobID.String()}))

	commitBody := []byte("tree " + treeID.String() + "\n" +
		"author A <a@x.com> 1000 +0000\n" +
		"committer A <a@x.com> 1000 +0000\n\ninitial\n")
	commitID := writeLoose(s, fs, object.CommitObject, commitBody)

	s.Require().NoError(util.WriteFile(fs, ".git/refs/heads/main", []byte(commitID.String()+"\n"), 0o644))
	s.Require().NoError(util.WriteFile(fs, ".git/HEAD", []byte("ref: refs/heads/main\n"), 0o644))

	return fs, commitID
}

func (s *RepositorySuite) TestOpenFSRejectsMissingGitDir() {
	fs := memfs.New()
	_, err := OpenFS(fs, ".git", "/")
	s.ErrorIs(err, NotARepository)
}

func (s *RepositorySuite) TestGetHeadAndBranch() {
	fs, commitID := s.buildRepo()
	r, err := OpenFS(fs, ".git", "/")
	s.Require().NoError(err)

	id, ok, err := r.GetHead()
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(commitID, id)

	branch, ok, err := r.GetHeadBranch()
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("main", branch)
}

func (s *RepositorySuite) TestGetCommitAndTreePaths() {
	fs, commitID := s.buildRepo()
	r, err := OpenFS(fs, ".git", "/")
	s.Require().NoError(err)

	commit, ok, err := r.GetCommit(commitID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("initial", commit.Title())
	s.Empty(commit.Body())

	paths, err := r.GetTreePaths(commit.TreeID)
	s.Require().NoError(err)
	s.Len(paths, 1)
	_, ok = paths["a.txt"]
	s.True(ok)
}

func (s *RepositorySuite) TestGetChangedFilesRootCommitAllAdded() {
	fs, commitID := s.buildRepo()
	r, err := OpenFS(fs, ".git", "/")
	s.Require().NoError(err)

	changed, err := r.GetChangedFiles(commitID)
	s.Require().NoError(err)
	s.Require().Contains(changed, "a.txt")
	s.Equal(diff.Added, changed["a.txt"].ChangeType)
}

func (s *RepositorySuite) TestGetWorkingTreeStatusMissingIndexStagesHeadFileDeleted() {
	fs, _ := s.buildRepo()
	r, err := OpenFS(fs, ".git", "/")
	s.Require().NoError(err)

	status, err := r.GetWorkingTreeStatus()
	s.Require().NoError(err)
	s.Require().Len(status, 1)
	s.Equal("a.txt", status[0].Path)
	s.Require().NotNil(status[0].Staged)
	s.Equal(worktree.Deleted, *status[0].Staged)
	s.Nil(status[0].Unstaged)
}

func (s *RepositorySuite) TestStreamAllCommitsYieldsRootCommit() {
	fs, commitID := s.buildRepo()
	r, err := OpenFS(fs, ".git", "/")
	s.Require().NoError(err)

	commits, err := r.GetAllCommits(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(commits, 1)
	s.Equal(commitID, commits[0].ID)
}
