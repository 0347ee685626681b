//go:build !windows

package resume

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockExclusive takes a blocking advisory exclusive flock(2) lock on the whole of f,
// the counterpart of gmp-ecm-resume.c's write_resumefile's F_SETLKW/F_WRLCK fcntl call, so
// multiple worker processes can append to the same checkpoint file without
// interleaving partial lines. Grounded on the platform-build-tag split
// server/listen_linux.go uses for OS-specific socket setup, applied here to
// OS-specific file locking instead.
func lockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
