//go:build !windows && !js && !wasip1 && !plan9

package worktree

import "syscall"

func init() {
	fillIdentity = func(sys any) (dev, ino uint64, ok bool) {
		st, ok := sys.(*syscall.Stat_t)
		if !ok {
			return 0, 0, false
		}
		return uint64(st.Dev), uint64(st.Ino), true //nolint:gosec // G115: platform-sized fields
	}
}
