package main

import (
	"fmt"
	"os"

	"github.com/suryatmodulus/microsandbox/imagedb"

	"go.uber.org/automaxprocs/maxprocs"
)

func init() {
	_, _ = maxprocs.Set()
}

func main() {
	err := imagedb.RootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
