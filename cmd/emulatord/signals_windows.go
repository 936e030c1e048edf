//go:build windows

package main

import (
	"os"
	"syscall"
)

// Windows has no user signals, so slots cannot be switched from outside
// and saving relies on the save interval and shutdown.
var handledSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// actionFor maps a received signal to the emulator action it requests
func actionFor(sig os.Signal) action {
	switch sig {
	case os.Interrupt, syscall.SIGTERM:
		return actionShutdown
	default:
		return actionNone
	}
}
