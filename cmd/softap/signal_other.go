//go:build !unix

package main

import "os"

func notifyStatus(c chan<- os.Signal) {}
