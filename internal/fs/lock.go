package fs

import "errors"

// ErrLocked is returned by Lock when another process holds the lock.
var ErrLocked = errors.New("directory is locked by another process")

// LockFileName is the name of the lock file created by Lock.
const LockFileName = ".lock"
