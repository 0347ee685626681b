//go:build windows

package resume

import (
	"os"

	"golang.org/x/sys/windows"
)

// lockExclusive takes a blocking advisory exclusive lock on f's first byte via
// LockFileEx, the Windows analogue of lock_unix.go's flock call.
func lockExclusive(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol)
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
