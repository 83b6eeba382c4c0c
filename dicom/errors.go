// Package dicom provides DICOM file parsing and manipulation.
package dicom

import "errors"

// Error kinds, one sentinel per taxonomy entry. A parse failure wraps the
// matching sentinel with %w plus tag/offset context via fmt.Errorf, so
// callers dispatch on kind with errors.Is while still getting a readable
// message.
var (
	// ErrIo wraps a failure of the underlying stream: read, seek, or
	// premature EOF where more bytes were expected.
	ErrIo = errors.New("io error")

	// ErrNotADicomFile indicates the file doesn't have a valid DICOM
	// preamble: 128 bytes followed by the "DICM" magic.
	//
	// DICOM Standard Reference:
	// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
	ErrNotADicomFile = errors.New("not a DICOM file: missing or invalid DICM prefix")

	// ErrMalformedHeader indicates a structurally invalid element or item
	// header: non-zero reserved bytes in an explicit-VR long header, or an
	// invalid item tag.
	ErrMalformedHeader = errors.New("malformed element or item header")

	// ErrUnexpectedTag indicates a tag appeared somewhere only a specific
	// other tag is legal, e.g. a non-Item tag inside a sequence body, or a
	// group 0x0002 element inside the main data set.
	ErrUnexpectedTag = errors.New("unexpected tag")

	// ErrInvalidVR indicates the two VR bytes don't match any of the
	// recognised VR set.
	//
	// DICOM Standard Reference:
	// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
	ErrInvalidVR = errors.New("invalid or unknown VR")

	// ErrInvalidTag indicates a malformed tag was encountered.
	//
	// DICOM Standard Reference:
	// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
	ErrInvalidTag = errors.New("invalid or malformed tag")

	// ErrUnsupportedVR indicates a recognised VR with no decode path.
	ErrUnsupportedVR = errors.New("unsupported VR")

	// ErrDuplicateTag indicates insert into a mutable Data Set whose tag
	// already exists.
	ErrDuplicateTag = errors.New("duplicate tag")

	// ErrSealed indicates a mutation attempt on a locked Data Set or
	// Sequence.
	ErrSealed = errors.New("data set is sealed")

	// ErrOutOfMemory indicates an allocation failure.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrMissingElement indicates a required element is absent, e.g.
	// Number of Frames when reading pixel data.
	ErrMissingElement = errors.New("missing required element")

	// ErrMalformedValue indicates a value's bytes cannot be parsed per its
	// VR, e.g. a non-numeric Number of Frames, or a VM>1 value under a
	// VR constrained to VM=1.
	ErrMalformedValue = errors.New("malformed value")

	// ErrNoOffsetTable indicates an encapsulated pixel data element whose
	// Basic Offset Table item is empty and no Extended Offset Table
	// element is present in metadata.
	ErrNoOffsetTable = errors.New("no basic or extended offset table available")

	// ErrBadArgument indicates a caller-supplied argument is invalid. e.g
	// an unknown file mode character or a zero frame number.
	ErrBadArgument = errors.New("bad argument")

	// ErrInvalidIndex indicates an out-of-range value index.
	ErrInvalidIndex = errors.New("invalid value index")

	// ErrInvalidTransferSyntax indicates an unsupported or invalid
	// transfer syntax.
	//
	// DICOM Standard Reference:
	// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#chapter_10
	ErrInvalidTransferSyntax = errors.New("invalid or unsupported transfer syntax")

	// ErrMissingTransferSyntax indicates the Transfer Syntax UID was not
	// found in File Meta Information.
	//
	// DICOM Standard Reference:
	// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
	ErrMissingTransferSyntax = errors.New("missing Transfer Syntax UID in File Meta Information")

	// ErrInvalidLength indicates an invalid value length was encountered.
	ErrInvalidLength = errors.New("invalid value length")

	// ErrUndefinedLength indicates an undefined length (0xFFFFFFFF) was
	// encountered somewhere it cannot be handled.
	//
	// DICOM Standard Reference:
	// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
	ErrUndefinedLength = errors.New("undefined length encountered")
)
