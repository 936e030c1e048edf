//go:build !windows

package main

import (
	"os"
	"syscall"
)

var handledSignals = []os.Signal{
	syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2,
}

// actionFor maps a received signal to the emulator action it requests
func actionFor(sig os.Signal) action {
	switch sig {
	case syscall.SIGUSR1:
		return actionNextSlot
	case syscall.SIGUSR2:
		return actionPrevSlot
	case syscall.SIGHUP:
		return actionSave
	case syscall.SIGINT, syscall.SIGTERM:
		return actionShutdown
	default:
		return actionNone
	}
}
