//go:build unix

package config

import (
	"os"
	"syscall"
)

// flock acquires an exclusive lock, blocking until it is available.
func flock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
}

// funlock releases the exclusive lock.
func funlock(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
