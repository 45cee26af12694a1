package main

import (
	"net"
	"os"
)

func main() {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		os.Exit(handleExitError(os.Stderr, err))
	}
	os.Exit(handleExitError(os.Stderr, runApp(listener)))
}
