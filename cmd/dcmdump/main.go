// Command dcmdump prints the File Meta Information and Data Set of a
// DICOM Part 10 file.
package main

import (
	"fmt"
	"os"

	"github.com/codeninja55/dcmkit/cmd/dcmdump/internal/cli"
)

// version, commit, and date are set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cli.Run(os.Args[1:], version, commit, date); err != nil {
		fmt.Fprintln(os.Stderr, "dcmdump:", err)
		os.Exit(1)
	}
}
