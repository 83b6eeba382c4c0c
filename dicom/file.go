package dicom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/codeninja55/dcmkit/dicom/pixel"
	"github.com/codeninja55/dcmkit/dicom/tag"
	"github.com/codeninja55/dcmkit/dicom/value"
)

// File is a seekable handle onto a parsed DICOM Part 10 file. Unlike
// ParseFile/ParseReader, which return only the merged DataSet, File keeps
// the underlying io.ReadSeeker and the byte offset of the Pixel Data
// element alive, so its pixel payload can be read one frame at a time
// instead of buffered whole into memory.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
type File struct {
	rs     io.ReadSeeker
	closer io.Closer

	dataset *DataSet
	ts      *TransferSyntax

	pixelDataOffset int64
	pixelDataTag    tag.Tag
}

// OpenFile opens path and parses it as a DICOM Part 10 file, keeping the
// underlying *os.File open for pixel data random access. The caller must
// Close the returned File.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	file, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	file.closer = f
	return file, nil
}

// NewFile parses a DICOM Part 10 file from rs, which must be positioned
// at the start of the file and remain valid for the lifetime of the
// returned File. Unlike ParseReader, NewFile retains rs and the recorded
// Pixel Data offset so ReadBOT/BuildBOT/ReadFrame can seek back into the
// stream on demand.
//
// Deflated transfer syntax is rejected: its Pixel Data offset is only
// meaningful relative to the start of the decompressed byte stream, which
// an io.Seeker on the raw file cannot reach directly.
func NewFile(rs io.ReadSeeker) (*File, error) {
	reader := NewReader(rs, binary.LittleEndian)
	parser := &Parser{reader: reader, rawReader: rs}

	if err := parser.readPreamble(); err != nil {
		return nil, fmt.Errorf("invalid DICOM file: %w", err)
	}

	metaInfo, err := parser.readFileMetaInformation()
	if err != nil {
		return nil, fmt.Errorf("failed to read File Meta Information: %w", err)
	}

	ts, err := parser.detectTransferSyntax(metaInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to detect transfer syntax: %w", err)
	}
	parser.ts = ts
	parser.reader.SetByteOrder(ts.ByteOrder)

	if ts.Deflated {
		return nil, fmt.Errorf("%w: pixel data random access is not supported for deflated transfer syntax %s", ErrInvalidTransferSyntax, ts.UID)
	}

	mainDS, err := parser.readDataset()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	for _, elem := range metaInfo.Elements() {
		if err := mainDS.Add(elem); err != nil {
			return nil, fmt.Errorf("failed to merge File Meta element %s into dataset: %w", elem.Tag(), err)
		}
	}

	return &File{
		rs:              rs,
		dataset:         mainDS,
		ts:              ts,
		pixelDataOffset: parser.pixelDataOffset,
		pixelDataTag:    parser.pixelDataTag,
	}, nil
}

// Close releases the underlying file handle, if File owns one (i.e. it
// was created by OpenFile rather than NewFile).
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// DataSet returns the parsed File Meta Information and main Data Set,
// merged into a single DataSet exactly as ParseFile/ParseReader return.
func (f *File) DataSet() *DataSet {
	return f.dataset
}

// FileMetaInformation returns just the Group 0x0002 elements.
func (f *File) FileMetaInformation() *DataSet {
	return f.dataset.FileMetaInformation()
}

// HasPixelData reports whether the main data set contained a Pixel Data
// tag (Pixel Data, Float Pixel Data, or Double Float Pixel Data) before
// reaching Trailing Padding or EOF.
func (f *File) HasPixelData() bool {
	return f.pixelDataOffset != noPixelDataOffset
}

// PixelDataTag returns which of the three pixel data tag variants the
// file's main data set used (Pixel Data, Float Pixel Data, or Double
// Float Pixel Data). Only meaningful when HasPixelData is true.
func (f *File) PixelDataTag() tag.Tag {
	return f.pixelDataTag
}

// NumberOfFrames returns the dataset's Number of Frames (0028,0008). It
// fails with ErrMissingElement when the element is absent, and with
// ErrMalformedValue when it is empty, not an integer, or not positive.
func (f *File) NumberOfFrames() (int, error) {
	elem, err := f.dataset.Get(tag.NumberOfFrames)
	if err != nil {
		return 0, fmt.Errorf("%w: Number of Frames", ErrMissingElement)
	}

	sv, ok := elem.Value().(*value.StringValue)
	if !ok {
		return 0, fmt.Errorf("%w: Number of Frames has unexpected value type", ErrMalformedValue)
	}
	strs := sv.Strings()
	if len(strs) == 0 || strings.TrimSpace(strs[0]) == "" {
		return 0, fmt.Errorf("%w: Number of Frames is empty", ErrMalformedValue)
	}

	n, err := strconv.Atoi(strings.TrimSpace(strs[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: Number of Frames %q is not an integer: %v", ErrMalformedValue, strs[0], err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: Number of Frames must be positive, got %d", ErrMalformedValue, n)
	}
	return n, nil
}

// frameGeometry carries the (0028,xxxx) attributes needed to interpret a
// frame's raw bytes once it's been sliced out of the Pixel Data stream.
type frameGeometry struct {
	rows, columns, samplesPerPixel           int
	bitsAllocated, bitsStored                int
	pixelRepresentation, planarConfiguration int
	photometricInterpretation                string
}

func (f *File) intAttr(t tag.Tag) (int, error) {
	elem, err := f.dataset.Get(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingElement, t)
	}
	iv, ok := elem.Value().(*value.IntValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s has unexpected value type", ErrMalformedValue, t)
	}
	ints := iv.Ints()
	if len(ints) == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrMalformedValue, t)
	}
	return int(ints[0]), nil
}

func (f *File) stringAttr(t tag.Tag) (string, error) {
	elem, err := f.dataset.Get(t)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingElement, t)
	}
	return elem.Value().String(), nil
}

func (f *File) frameGeometry() (frameGeometry, error) {
	var g frameGeometry
	var err error

	if g.rows, err = f.intAttr(tag.Rows); err != nil {
		return g, err
	}
	if g.columns, err = f.intAttr(tag.Columns); err != nil {
		return g, err
	}
	if g.samplesPerPixel, err = f.intAttr(tag.SamplesPerPixel); err != nil {
		return g, err
	}
	if g.bitsAllocated, err = f.intAttr(tag.BitsAllocated); err != nil {
		return g, err
	}
	if g.bitsStored, err = f.intAttr(tag.BitsStored); err != nil {
		return g, err
	}
	if g.pixelRepresentation, err = f.intAttr(tag.PixelRepresentation); err != nil {
		return g, err
	}
	// Planar Configuration only matters when SamplesPerPixel > 1 and is
	// often absent otherwise; default to 0 (color-by-pixel) rather than
	// failing the whole geometry lookup over it.
	g.planarConfiguration, _ = f.intAttr(tag.PlanarConfiguration)
	if g.photometricInterpretation, err = f.stringAttr(tag.PhotometricInterpretation); err != nil {
		return g, err
	}
	return g, nil
}

// seekToPixelData seeks rs to the recorded Pixel Data offset and rereads
// the element's tag, VR and length, returning a Reader positioned
// immediately after that header so the caller can keep reading
// sequentially (Item headers for encapsulated data, or frame bytes
// directly for native data).
func (f *File) seekToPixelData() (*Reader, uint32, error) {
	if !f.HasPixelData() {
		return nil, 0, fmt.Errorf("%w: Pixel Data", ErrMissingElement)
	}

	reader := NewReader(f.rs, f.ts.ByteOrder)
	if err := reader.SeekTo(f.pixelDataOffset); err != nil {
		return nil, 0, err
	}

	elemParser := NewElementParser(reader, f.ts)
	t, err := elemParser.readTag()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reread Pixel Data tag: %w", err)
	}
	if !isPixelDataTag(t) {
		return nil, 0, fmt.Errorf("%w: expected Pixel Data tag at recorded offset, got %s", ErrUnexpectedTag, t)
	}

	var length uint32
	if f.ts.ExplicitVR {
		v, err := elemParser.readVRExplicit()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to reread Pixel Data VR: %w", err)
		}
		length, err = elemParser.readLength(v)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to reread Pixel Data length: %w", err)
		}
	} else {
		length, err = reader.ReadUint32()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to reread Pixel Data length: %w", err)
		}
	}

	return reader, length, nil
}

// ReadBOT reads the Basic Offset Table for an encapsulated Pixel Data
// element, falling back to the Extended Offset Table (7FE0,0001) when the
// Basic Offset Table item is empty.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func (f *File) ReadBOT() ([]uint64, error) {
	reader, length, err := f.seekToPixelData()
	if err != nil {
		return nil, err
	}
	if length != 0xFFFFFFFF {
		return nil, fmt.Errorf("%w: Pixel Data is native (defined length %d), not encapsulated", ErrBadArgument, length)
	}

	numFrames, err := f.NumberOfFrames()
	if err != nil {
		return nil, err
	}

	elemParser := NewElementParser(reader, f.ts)
	itemTag, err := elemParser.readTag()
	if err != nil {
		return nil, fmt.Errorf("failed to read Basic Offset Table item header: %w", err)
	}
	if itemTag.Uint32() != itemTagValue {
		return nil, fmt.Errorf("%w: expected Item tag for Basic Offset Table, got %s", ErrUnexpectedTag, itemTag)
	}
	itemLength, err := reader.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("failed to read Basic Offset Table item length: %w", err)
	}

	if itemLength == 0 {
		eot, err := f.dataset.Get(tag.ExtendedOffsetTable)
		if err != nil {
			return nil, pixel.ErrNoOffsetTable
		}
		bv, ok := eot.Value().(*value.BytesValue)
		if !ok {
			return nil, fmt.Errorf("%w: Extended Offset Table has unexpected value type", ErrMalformedValue)
		}
		return pixel.ParseExtendedOffsetTable(bv.Bytes())
	}

	if itemLength != uint32(numFrames)*4 {
		return nil, fmt.Errorf("%w: Basic Offset Table length %d bytes does not match %d frames", ErrInvalidLength, itemLength, numFrames)
	}

	raw, err := reader.ReadBytes(int(itemLength))
	if err != nil {
		return nil, fmt.Errorf("failed to read Basic Offset Table: %w", err)
	}

	offsets := make([]uint64, numFrames)
	for i := range offsets {
		o := f.ts.ByteOrder.Uint32(raw[i*4 : i*4+4])
		if o == itemTagValue {
			return nil, fmt.Errorf("%w: Basic Offset Table entry %d equals the Item Tag, corrupt table", ErrMalformedValue, i)
		}
		offsets[i] = uint64(o)
	}
	return offsets, nil
}

// BuildBOT derives a per-frame offset table by walking the encapsulated
// Pixel Data element's fragment Items directly, for files whose Basic
// Offset Table is empty and which carry no Extended Offset Table either.
// Each Item is treated as one frame's fragment; offsets are relative to
// each Item's own tag-start position, with the first frame at offset 0 -
// matching the relative seek that ReadFrame performs from
// pixelDataOffset + first_frame_offset.
func (f *File) BuildBOT() ([]uint64, error) {
	reader, length, err := f.seekToPixelData()
	if err != nil {
		return nil, err
	}
	if length != 0xFFFFFFFF {
		return nil, fmt.Errorf("%w: Pixel Data is native (defined length %d), not encapsulated", ErrBadArgument, length)
	}

	elemParser := NewElementParser(reader, f.ts)

	// Skip the Basic Offset Table item's value without interpreting it.
	botTag, err := elemParser.readTag()
	if err != nil {
		return nil, fmt.Errorf("failed to read Basic Offset Table item header: %w", err)
	}
	if botTag.Uint32() != itemTagValue {
		return nil, fmt.Errorf("%w: expected Item tag for Basic Offset Table, got %s", ErrUnexpectedTag, botTag)
	}
	botLength, err := reader.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("failed to read Basic Offset Table item length: %w", err)
	}
	if botLength > 0 {
		if _, err := reader.ReadBytes(int(botLength)); err != nil {
			return nil, fmt.Errorf("failed to skip Basic Offset Table value: %w", err)
		}
	}

	var offsets []uint64
	firstItemTagStart := reader.Position()

	for {
		tagStart := reader.Position()
		t, err := elemParser.readTag()
		if err != nil {
			return nil, fmt.Errorf("unexpected EOF while walking Pixel Data fragments: %w", err)
		}

		if t.Uint32() == sequenceDelimitationTagValue {
			if _, err := reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("failed to read sequence delimitation length: %w", err)
			}
			break
		}
		if t.Uint32() != itemTagValue {
			return nil, fmt.Errorf("%w: expected Item tag while walking Pixel Data fragments, got %s", ErrUnexpectedTag, t)
		}

		itemLength, err := reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read fragment item length: %w", err)
		}

		offsets = append(offsets, uint64(tagStart-firstItemTagStart))

		if itemLength > 0 {
			if _, err := reader.ReadBytes(int(itemLength)); err != nil {
				return nil, fmt.Errorf("failed to skip fragment data: %w", err)
			}
		}
	}

	if len(offsets) == 0 {
		return nil, pixel.ErrNoOffsetTable
	}
	return offsets, nil
}

// Offsets resolves the per-frame offset table for whatever kind of Pixel
// Data the file has: geometry-derived offsets for native pixel data, or
// the Basic/Extended Offset Table for encapsulated pixel data, falling
// back to BuildBOT when neither table is present.
func (f *File) Offsets() ([]uint64, error) {
	_, length, err := f.seekToPixelData()
	if err != nil {
		return nil, err
	}

	if length != 0xFFFFFFFF {
		numFrames, err := f.NumberOfFrames()
		if err != nil {
			return nil, err
		}
		geo, err := f.frameGeometry()
		if err != nil {
			return nil, err
		}
		return pixel.BuildNativeOffsets(pixel.NativePixelDescriptor{
			Rows:            geo.rows,
			Columns:         geo.columns,
			SamplesPerPixel: geo.samplesPerPixel,
			BitsAllocated:   geo.bitsAllocated,
			NumberOfFrames:  numFrames,
		})
	}

	offsets, err := f.ReadBOT()
	if err == nil {
		return offsets, nil
	}
	if errors.Is(err, pixel.ErrNoOffsetTable) {
		return f.BuildBOT()
	}
	return nil, err
}

// ReadFrame seeks directly to the requested 1-based frame using a
// previously resolved offset table (from ReadBOT, BuildBOT, or Offsets)
// and returns its raw bytes and geometry. For encapsulated pixel data the
// bytes are exactly the compressed fragment; decoding them is a caller
// concern.
//
// first_frame_offset, relative to the recorded Pixel Data offset, is
// 12 (pixel-data element header) + 8 (Basic Offset Table item header) +
// 4*NumberOfFrames (Basic Offset Table value) for encapsulated data, or
// 10 (pixel-data element header) for native data.
func (f *File) ReadFrame(offsets []uint64, number int) (*pixel.Frame, error) {
	if number < 1 || number > len(offsets) {
		return nil, fmt.Errorf("%w: %d (have %d frames)", pixel.ErrFrameOutOfRange, number, len(offsets))
	}

	geo, err := f.frameGeometry()
	if err != nil {
		return nil, err
	}
	tsUID, err := f.stringAttr(tag.TransferSyntaxUID)
	if err != nil {
		return nil, err
	}

	reader, length, err := f.seekToPixelData()
	if err != nil {
		return nil, err
	}

	var firstFrameOffset int64
	if length == 0xFFFFFFFF {
		numFrames, err := f.NumberOfFrames()
		if err != nil {
			return nil, err
		}
		firstFrameOffset = 12 + 8 + 4*int64(numFrames)
	} else {
		firstFrameOffset = 10
	}

	target := f.pixelDataOffset + firstFrameOffset + int64(offsets[number-1])
	if err := reader.SeekTo(target); err != nil {
		return nil, fmt.Errorf("failed to seek to frame %d: %w", number, err)
	}

	frame := &pixel.Frame{
		Number:                    number,
		Rows:                      geo.rows,
		Columns:                   geo.columns,
		SamplesPerPixel:           geo.samplesPerPixel,
		BitsAllocated:             geo.bitsAllocated,
		BitsStored:                geo.bitsStored,
		PixelRepresentation:       geo.pixelRepresentation,
		PlanarConfiguration:       geo.planarConfiguration,
		PhotometricInterpretation: geo.photometricInterpretation,
		TransferSyntaxUID:         tsUID,
	}

	if length == 0xFFFFFFFF {
		elemParser := NewElementParser(reader, f.ts)
		itemTag, err := elemParser.readTag()
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %d item header: %w", number, err)
		}
		if itemTag.Uint32() != itemTagValue {
			return nil, fmt.Errorf("%w: expected Item tag for frame %d, got %s", ErrUnexpectedTag, number, itemTag)
		}
		itemLength, err := reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %d item length: %w", number, err)
		}
		data, err := reader.ReadBytes(int(itemLength))
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %d data: %w", number, err)
		}
		frame.Data = data
		return frame, nil
	}

	frameLen := pixel.NativeFrameLength(pixel.NativePixelDescriptor{
		Rows:            geo.rows,
		Columns:         geo.columns,
		SamplesPerPixel: geo.samplesPerPixel,
		BitsAllocated:   geo.bitsAllocated,
	})
	data, err := reader.ReadBytes(frameLen)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %d data: %w", number, err)
	}
	frame.Data = data
	return frame, nil
}

// Frame resolves the offset table and returns the requested 1-based
// frame in one call.
func (f *File) Frame(number int) (*pixel.Frame, error) {
	offsets, err := f.Offsets()
	if err != nil {
		return nil, err
	}
	return f.ReadFrame(offsets, number)
}
