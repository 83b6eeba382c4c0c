package ui

import (
	"fmt"
	"io"

	"github.com/alexeyco/simpletable"
	"github.com/codeninja55/dcmkit/dicom"
	"github.com/codeninja55/dcmkit/dicom/element"
)

// RenderElements writes elements as a Tag/VR/Name/Value table to w.
func RenderElements(w io.Writer, elements []*element.Element) {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Tag"},
			{Align: simpletable.AlignCenter, Text: "VR"},
			{Text: "Name"},
			{Text: "Value"},
		},
	}

	for _, elem := range elements {
		table.Body.Cells = append(table.Body.Cells, []*simpletable.Cell{
			{Text: elem.Tag().String()},
			{Text: elem.VR().String()},
			{Text: elem.Name()},
			{Text: elem.Value().String()},
		})
	}

	table.SetStyle(simpletable.StyleCompact)
	io.WriteString(w, table.String())
	io.WriteString(w, "\n")
}

// RenderPixelSummary writes a one-row table describing f's Pixel Data
// element: which tag variant it used, how many frames it holds, the byte
// length of the first frame (read through f.Frame), and that frame's
// Photometric Interpretation. The frame's offset is not shown. Writes
// nothing if f has no Pixel Data element.
func RenderPixelSummary(w io.Writer, f *dicom.File) error {
	if !f.HasPixelData() {
		return nil
	}

	numFrames, err := f.NumberOfFrames()
	if err != nil {
		return fmt.Errorf("reading Number of Frames: %w", err)
	}

	frame, err := f.Frame(1)
	if err != nil {
		return fmt.Errorf("reading frame 1: %w", err)
	}

	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Tag"},
			{Align: simpletable.AlignCenter, Text: "Frames"},
			{Align: simpletable.AlignCenter, Text: "Frame 1 Bytes"},
			{Text: "Photometric Interpretation"},
		},
	}
	table.Body.Cells = append(table.Body.Cells, []*simpletable.Cell{
		{Text: f.PixelDataTag().String()},
		{Align: simpletable.AlignRight, Text: fmt.Sprintf("%d", numFrames)},
		{Align: simpletable.AlignRight, Text: fmt.Sprintf("%d", len(frame.Data))},
		{Text: frame.PhotometricInterpretation},
	})

	table.SetStyle(simpletable.StyleCompact)
	io.WriteString(w, table.String())
	io.WriteString(w, "\n")
	return nil
}
