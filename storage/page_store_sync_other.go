//go:build !unix

package storage

import "os"

// fdatasync falls back to a full Sync on platforms without a distinct
// fdatasync syscall (e.g. Windows).
func fdatasync(f *os.File) error {
	return f.Sync()
}
