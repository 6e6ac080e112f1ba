package main

import (
	"errors"
	"fmt"
	"os"

	stationerrors "github.com/stationctl/stationctl/pkg/errors"
)

const (
	exitOK              = 0
	exitResourceFailure = 1
	exitConfigError     = 2
	exitPrivilegeDenied = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	err := newRootCmd().Execute()
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(os.Stderr, "stationctl: %v\n", err)

	var invalid *stationerrors.InvalidConfigError
	if errors.As(err, &invalid) {
		return exitConfigError
	}
	var denied *stationerrors.PrivilegeDeniedError
	if errors.As(err, &denied) {
		return exitPrivilegeDenied
	}
	return exitResourceFailure
}
