package git

import (
	"strings"

	"github.com/brillcp/SwiftGit-sub000/diff"
)

// StageHunk applies h to the index for path via `git apply --cached`. path
// must already be tracked (appear in the index); staging a hunk out of an
// untracked file is rejected, since there is no indexed blob to patch.
func (r *Repository) StageHunk(path string, h diff.Hunk) error {
	idx, err := r.index()
	if err != nil {
		return err
	}
	entry := idx.EntryByPath(path)
	if entry == nil {
		if status, serr := r.GetUnstagedChanges(); serr == nil {
			for _, f := range status {
				if f.Path == path && f.Unstaged != nil {
					return &GitError{Kind: GitCannotStageHunkFromUntrackedFile}
				}
			}
		}
		return &GitError{Kind: GitFileNotInIndex}
	}

	patch := diff.GeneratePatch(path, h)
	_, stderr, err := r.newGitCommand("apply", "--cached", "--ignore-whitespace", "--unidiff-zero", "--whitespace=nowarn").
		withStdin([]byte(patch)).run()
	if err != nil {
		return &GitError{Kind: GitStageHunkFailed, Stderr: stderr}
	}

	r.invalidateIndex()
	return nil
}

// UnstageHunk reverses h's effect on the index via `git apply --cached` on
// the reverse patch. If the only remaining HEAD/index difference for path
// afterward is a trailing-newline delta, a silent `git reset HEAD -- path`
// normalizes it; apply's reverse-patch handling can otherwise leave a
// spurious newline-only staged change.
func (r *Repository) UnstageHunk(path string, h diff.Hunk) error {
	patch := diff.GenerateReversePatch(path, h)
	_, stderr, err := r.newGitCommand("apply", "--cached", "--ignore-whitespace", "--unidiff-zero", "--whitespace=nowarn").
		withStdin([]byte(patch)).run()
	if err != nil {
		return &GitError{Kind: GitUnstageHunkFailed, Stderr: stderr}
	}
	r.invalidateIndex()

	if onlyTrailingNewlineDiffers, err := r.stagedDiffIsTrailingNewlineOnly(path); err == nil && onlyTrailingNewlineDiffers {
		_, _, _ = r.runGit("reset", "HEAD", "--", path)
		r.invalidateIndex()
	}
	return nil
}

// DiscardHunk applies the reverse patch directly to the working tree
// (no --cached), discarding h's change without touching the index.
func (r *Repository) DiscardHunk(path string, h diff.Hunk) error {
	patch := diff.GenerateReversePatch(path, h)
	_, stderr, err := r.newGitCommand("apply", "--ignore-whitespace", "--unidiff-zero", "--whitespace=nowarn").
		withStdin([]byte(patch)).run()
	if err != nil {
		return &GitError{Kind: GitDiscardHunkFailed, Stderr: stderr}
	}
	return nil
}

func (r *Repository) stagedDiffIsTrailingNewlineOnly(path string) (bool, error) {
	hunks, err := r.GetStagedDiff(path)
	if err != nil {
		return false, err
	}
	if len(hunks) != 1 {
		return len(hunks) == 0, nil
	}
	h := hunks[0]
	for _, l := range h.Lines {
		if l.Type != diff.Unchanged && strings.TrimRight(l.Text(), "\n\r") != "" {
			return false, nil
		}
	}
	return true, nil
}

// StageFile stages the whole file at path via `git add -- path`.
func (r *Repository) StageFile(path string) error {
	_, stderr, err := r.runGit("add", "--", path)
	if err != nil {
		return &GitError{Kind: GitStageFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// StageAll stages every working-tree change via `git add --all`.
func (r *Repository) StageAll() error {
	_, stderr, err := r.runGit("add", "--all")
	if err != nil {
		return &GitError{Kind: GitStageFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// UnstageFile unstages path via `git reset HEAD -- path`.
func (r *Repository) UnstageFile(path string) error {
	_, stderr, err := r.runGit("reset", "HEAD", "--", path)
	if err != nil {
		return &GitError{Kind: GitUnstageFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// UnstageAll unstages every staged change via `git reset HEAD`.
func (r *Repository) UnstageAll() error {
	_, stderr, err := r.runGit("reset", "HEAD")
	if err != nil {
		return &GitError{Kind: GitUnstageFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// DiscardFile reverts path to its indexed content (`git restore -- path`)
// if tracked, or deletes it from the filesystem if it is an untracked
// file with nothing to restore to.
func (r *Repository) DiscardFile(path string) error {
	idx, err := r.index()
	if err != nil {
		return err
	}
	if idx.EntryByPath(path) != nil {
		_, stderr, err := r.runGit("restore", "--", path)
		if err != nil {
			return &GitError{Kind: GitDiscardFileFailed, Stderr: stderr}
		}
		return nil
	}

	if err := r.fs.Remove(path); err != nil && !isNotExist(err) {
		return &GitError{Kind: GitDiscardFileFailed, Stderr: err.Error()}
	}
	return nil
}

// DiscardAll discards every working-tree change (`git restore .`) and
// removes untracked files and directories (`git clean -f -d`).
func (r *Repository) DiscardAll() error {
	if _, stderr, err := r.runGit("restore", "."); err != nil {
		return &GitError{Kind: GitDiscardAllFailed, Stderr: stderr}
	}
	if _, stderr, err := r.runGit("clean", "-f", "-d"); err != nil {
		return &GitError{Kind: GitDiscardAllFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// ResetHard discards all staged and working-tree changes via
// `git reset --hard HEAD`.
func (r *Repository) ResetHard() error {
	_, stderr, err := r.runGit("reset", "--hard", "HEAD")
	if err != nil {
		return &GitError{Kind: GitDiscardAllFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}
