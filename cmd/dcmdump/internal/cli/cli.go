// Package cli wires together the dcmdump command line: flag parsing via
// kong, logging via internal/dicomlog, and the dump command itself.
package cli

import (
	"github.com/alecthomas/kong"
	"github.com/codeninja55/dcmkit/cmd/dcmdump/internal/build"
	"github.com/codeninja55/dcmkit/cmd/dcmdump/internal/commands"
	"github.com/codeninja55/dcmkit/cmd/dcmdump/internal/config"
	"github.com/codeninja55/dcmkit/internal/dicomlog"
)

const (
	appName        = "dcmdump"
	appDescription = "Dump a DICOM Part 10 file's File Meta Information and Data Set"
)

// CLI is the root command: dcmdump [-v] [-V] [-h] FILE_PATH.
type CLI struct {
	config.GlobalConfig
	commands.DumpCmd
}

// Run parses os.Args-equivalent arguments, configures logging, and
// executes the dump command. version/commit/date are injected at build
// time via -ldflags.
func Run(args []string, version, commit, date string) error {
	build.SetBuildInfo(version, commit, date)

	// -h and -V are handled entirely by kong: it prints help/version and
	// calls os.Exit(0) itself, matching the spec's "-h/-V exit 0" rule
	// without any custom exit-code plumbing here.
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
		kong.Vars{"version": build.Get().String()},
	)
	if err != nil {
		return err
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if cli.Verbose {
		dicomlog.SetLevel(dicomlog.InfoLevel)
	}

	return cli.DumpCmd.Run()
}
