package worktree

// fillIdentity extracts the device/inode pair from an os.FileInfo.Sys()
// value, when the platform exposes one. Set per-platform in identity_*.go.
var fillIdentity func(sys any) (dev, ino uint64, ok bool)

func init() {
	fillIdentity = func(any) (uint64, uint64, bool) { return 0, 0, false }
}
