//go:build windows

package config

import (
	"os"

	"golang.org/x/sys/windows"
)

// flock acquires an exclusive lock, blocking until it is available.
// LockFileEx locks the entire file (offset 0, length 1).
func flock(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK,
		0, // reserved
		1, // lock 1 byte
		0, // high bits of length
		ol,
	)
}

// funlock releases the exclusive lock.
func funlock(f *os.File) {
	ol := new(windows.Overlapped)
	windows.UnlockFileEx(
		windows.Handle(f.Fd()),
		0, // reserved
		1, // unlock 1 byte
		0, // high bits of length
		ol,
	)
}
