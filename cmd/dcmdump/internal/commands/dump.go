// Package commands implements the dcmdump subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/codeninja55/dcmkit/cmd/dcmdump/internal/ui"
	"github.com/codeninja55/dcmkit/dicom"
	"github.com/codeninja55/dcmkit/dicom/element"
	"github.com/codeninja55/dcmkit/internal/dicomlog"
)

// DumpCmd dumps a single DICOM file's File Meta Information and Data Set.
type DumpCmd struct {
	Path string `arg:"" type:"existingfile" help:"DICOM file to dump"`
}

// Run parses Path and prints its File Meta Information, main Data Set,
// and (when present) a summary of its Pixel Data element resolved
// through the frame-level random-access path.
func (c *DumpCmd) Run() error {
	ui.PrintBanner()
	dicomlog.Debug("parsing file", "path", c.Path)

	file, err := dicom.OpenFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.Path, err)
	}
	defer file.Close()

	ds := file.DataSet()

	if fmi := file.FileMetaInformation(); fmi != nil {
		ui.PrintHeader("File Meta Information")
		ui.RenderElements(os.Stdout, fmi.Elements())
	}

	ui.PrintHeader("Data Set")
	ui.RenderElements(os.Stdout, mainDataSetElements(ds))

	if file.HasPixelData() {
		ui.PrintHeader("Pixel Data")
		if err := ui.RenderPixelSummary(os.Stdout, file); err != nil {
			dicomlog.Error("failed to resolve pixel data", "file", c.Path, "error", err)
		}
	}

	dicomlog.Info("dump complete", "file", c.Path, "elements", ds.Len())
	return nil
}

// mainDataSetElements returns every element outside the File Meta
// Information group (0x0002), since File.DataSet merges both into one
// DataSet.
func mainDataSetElements(ds *dicom.DataSet) []*element.Element {
	var elements []*element.Element
	for _, elem := range ds.Elements() {
		if !elem.Tag().IsMetaElement() {
			elements = append(elements, elem)
		}
	}
	return elements
}
