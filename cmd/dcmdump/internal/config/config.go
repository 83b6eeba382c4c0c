// Package config holds the dcmdump CLI's whole configuration surface: the
// flags kong populates directly onto this struct. There is no config-file
// layer, matching the teacher's cmd/radx pattern of flags being the entire
// configuration surface.
package config

import "github.com/alecthomas/kong"

// GlobalConfig holds the flags of the dcmdump command: -v raises the log
// level to info, -V prints the version and exits 0 (kong.VersionFlag
// handles the exit itself), -h is supplied by kong for free.
type GlobalConfig struct {
	Verbose bool             `name:"verbose" short:"v" help:"Raise log level to info"`
	Version kong.VersionFlag `name:"version" short:"V" help:"Print version and exit"`
}
