//go:build unix

package main

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

func notifyStatus(c chan<- os.Signal) {
	signal.Notify(c, unix.SIGUSR1)
}
