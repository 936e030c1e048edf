//go:build !unix && !windows

package filestore

import "os"

// lockFile is a no-op where no advisory locking is available
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
