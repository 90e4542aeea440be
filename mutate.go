package git

import (
	"bytes"
	"os/exec"
	"runtime"
	"strings"
)

// gitBinaryPaths are the well-known install locations resolveGitBinary
// probes before falling back to PATH lookup, matching how IDE git
// integrations locate a binary without relying on a login shell's PATH.
// The probe is repeated for every git invocation; its result is not cached.
var gitBinaryPaths = []string{
	"/usr/bin/git",
	"/opt/homebrew/bin/git",
	"/usr/local/bin/git",
}

func resolveGitBinary() (string, error) {
	for _, p := range gitBinaryPaths {
		if _, err := exec.LookPath(p); err == nil {
			return p, nil
		}
	}
	if runtime.GOOS == "darwin" {
		out, err := exec.Command("xcrun", "-f", "git").Output()
		if err == nil {
			if p := strings.TrimSpace(string(out)); p != "" {
				return p, nil
			}
		}
	}
	if p, err := exec.LookPath("git"); err == nil {
		return p, nil
	}
	return "", &GitError{Kind: GitNotFound}
}

// gitCommand is one external git invocation, run with the repository root
// as its working directory.
type gitCommand struct {
	dir   string
	args  []string
	stdin []byte
}

func (r *Repository) newGitCommand(args ...string) *gitCommand {
	return &gitCommand{dir: r.workDir, args: args}
}

// run executes the command, returning trimmed stdout. A non-zero exit
// produces a GitError{Kind: GitCommandFailed} carrying the argument vector
// and stderr for the caller's own stderr-sniffing classification.
func (c *gitCommand) run() (stdout, stderr string, err error) {
	bin, err := resolveGitBinary()
	if err != nil {
		return "", "", err
	}

	cmd := exec.Command(bin, c.args...)
	cmd.Dir = c.dir
	if c.stdin != nil {
		cmd.Stdin = bytes.NewReader(c.stdin)
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout = strings.TrimSpace(outBuf.String())
	stderr = strings.TrimSpace(errBuf.String())
	if runErr != nil {
		return stdout, stderr, &GitError{Kind: GitCommandFailed, Command: c.args, Stderr: stderr}
	}
	return stdout, stderr, nil
}

func (c *gitCommand) withStdin(b []byte) *gitCommand {
	c.stdin = b
	return c
}

// runGit is the common entry point mutation methods use: it runs args in
// the repository and leaves cache invalidation to the caller, since which
// caches a mutation invalidates varies by command.
func (r *Repository) runGit(args ...string) (stdout, stderr string, err error) {
	return r.newGitCommand(args...).run()
}

// outputContainsAny reports whether any of substrings appears, case
// insensitively, in output. Git is inconsistent about which stream a given
// porcelain message lands on (e.g. "nothing to commit" is stdout, a
// cherry-pick conflict notice is stderr), so classification sniffs
// whichever combination of streams a given command can write the message
// to, rather than assuming stderr.
func outputContainsAny(output string, substrings ...string) bool {
	lower := strings.ToLower(output)
	for _, s := range substrings {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
