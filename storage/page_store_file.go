package storage

import (
	"os"

	"github.com/ncw/directio"
)

// FilePageStore is the production PageStore: a single file opened with
// O_DIRECT via ncw/directio, so page reads and writes bypass the OS page
// cache entirely -- the buffer pool is the only cache in this system, per
// spec.md's "force" durability story, and a second, invisible OS-level
// cache would make FlushAllPages's fsync lie about what's actually safe on
// platter. Reads and writes always use an AlignSize-aligned scratch buffer
// regardless of the caller's buf, since O_DIRECT requires aligned I/O.
type FilePageStore struct {
	f *os.File
}

// OpenFilePageStore opens (creating if absent) the backing file at path.
func OpenFilePageStore(path string) (*FilePageStore, error) {
	f, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, newIoErr("open", err)
	}
	return &FilePageStore{f: f}, nil
}

func (s *FilePageStore) ReadAt(pageNo int, buf []byte) error {
	aligned := directio.AlignedBlock(PageSize)
	n, err := s.f.ReadAt(aligned, int64(pageNo)*int64(PageSize))
	if err != nil && n == 0 {
		return newIoErr("read", err)
	}
	copy(buf, aligned)
	return nil
}

func (s *FilePageStore) WriteAt(pageNo int, buf []byte) error {
	aligned := directio.AlignedBlock(PageSize)
	copy(aligned, buf)
	if _, err := s.f.WriteAt(aligned, int64(pageNo)*int64(PageSize)); err != nil {
		return newIoErr("write", err)
	}
	return nil
}

func (s *FilePageStore) NumPages() int {
	fi, err := s.f.Stat()
	if err != nil {
		return 0
	}
	return int(fi.Size() / int64(PageSize))
}

// Sync forces previously written pages to stable storage. The actual
// syscall used is platform-dependent -- see page_store_sync_unix.go and
// page_store_sync_other.go -- since Fdatasync has no portable equivalent.
func (s *FilePageStore) Sync() error {
	if err := fdatasync(s.f); err != nil {
		return newIoErr("fdatasync", err)
	}
	return nil
}

func (s *FilePageStore) Close() error {
	return s.f.Close()
}
