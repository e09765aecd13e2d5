//go:build unix

package storage

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync flushes f's data (not its metadata) to stable storage. This is
// the force-durability primitive the commit path needs: cheaper than a
// full Fsync since it skips the inode's mtime/size metadata when that
// metadata hasn't changed.
func fdatasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
