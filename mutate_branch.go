package git

import "path"

// protectedBranches can never be deleted, even with force.
var protectedBranches = map[string]bool{
	"main":       true,
	"master":     true,
	"develop":    true,
	"production": true,
	"staging":    true,
}

// Checkout switches to branch, creating it from the current HEAD when
// createNew is true. Switching to an existing branch first requires a
// clean working tree; checkout refuses to silently carry changes across
// branches the way a plain filesystem copy would.
func (r *Repository) Checkout(branch string, createNew bool) error {
	if !createNew {
		status, err := r.GetWorkingTreeStatus()
		if err != nil {
			return err
		}
		if len(status) > 0 {
			return &GitError{Kind: GitUncommittedChanges, Branch: branch, Action: "checkout"}
		}
	}

	args := []string{"checkout"}
	if createNew {
		args = append(args, "-b")
	}
	args = append(args, branch)

	_, stderr, err := r.runGit(args...)
	if err != nil {
		return &GitError{Kind: GitCheckoutFailed, Branch: branch, Action: "checkout", Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// DeleteBranch removes a local branch. force selects `-D` over `-d`.
// Deleting the current branch or a protected name is always rejected,
// force included.
func (r *Repository) DeleteBranch(name string, force bool) error {
	if current, ok, err := r.GetHeadBranch(); err == nil && ok && current == name {
		return &GitError{Kind: GitCannotDeleteCurrentBranch, Branch: name}
	}
	if protectedBranches[name] {
		return &GitError{Kind: GitCannotDeleteProtectedBranch, Branch: name}
	}

	flag := "-d"
	if force {
		flag = "-D"
	}
	_, stderr, err := r.runGit("branch", flag, name)
	if err != nil {
		return &GitError{Kind: GitDeleteBranchFailed, Branch: name, Stderr: stderr}
	}
	return nil
}

// CherryPick applies commitID on top of HEAD. A conflicting cherry-pick is
// classified by sniffing both stdout and stderr for "conflict", since
// porcelain git reports it on either one depending on version.
func (r *Repository) CherryPick(commitID string) error {
	stdout, stderr, err := r.runGit("cherry-pick", commitID)
	if err != nil {
		if outputContainsAny(stdout+"\n"+stderr, "conflict") {
			return &GitError{Kind: GitCherryPickConflict, Stderr: stderr}
		}
		return &GitError{Kind: GitCherryPickFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// Revert reverts commitID. noCommit leaves the revert staged instead of
// creating a commit, mirroring `git revert --no-commit`.
func (r *Repository) Revert(commitID string, noCommit bool) error {
	args := []string{"revert"}
	if noCommit {
		args = append(args, "--no-commit")
	}
	args = append(args, commitID)

	stdout, stderr, err := r.runGit(args...)
	if err != nil {
		if outputContainsAny(stdout+"\n"+stderr, "conflict") {
			return &GitError{Kind: GitRevertConflict, Stderr: stderr}
		}
		return &GitError{Kind: GitRevertFailed, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

// HasConflicts reports whether a merge, cherry-pick or revert is currently
// paused on an unresolved conflict, per the presence of the matching
// operation marker file.
func (r *Repository) HasConflicts() (bool, error) {
	for _, marker := range []string{"MERGE_HEAD", "CHERRY_PICK_HEAD", "REVERT_HEAD"} {
		if _, err := r.fs.Stat(path.Join(r.gitDir, marker)); err == nil {
			return true, nil
		} else if !isNotExist(err) {
			return false, err
		}
	}
	return false, nil
}

// AbortOperation aborts whichever of merge/cherry-pick/revert is currently
// in progress, determined by which marker file is present.
func (r *Repository) AbortOperation() error {
	var op string
	switch {
	case r.markerExists("MERGE_HEAD"):
		op = "merge"
	case r.markerExists("CHERRY_PICK_HEAD"):
		op = "cherry-pick"
	case r.markerExists("REVERT_HEAD"):
		op = "revert"
	default:
		return nil
	}

	_, stderr, err := r.runGit(op, "--abort")
	if err != nil {
		return &GitError{Kind: GitCommandFailed, Command: []string{op, "--abort"}, Stderr: stderr}
	}
	r.invalidateIndex()
	return nil
}

func (r *Repository) markerExists(name string) bool {
	_, err := r.fs.Stat(path.Join(r.gitDir, name))
	return err == nil
}
