package pixel

// Frame is an immutable, single-frame slice of a Pixel Data element: one
// image's worth of bytes plus the geometry and photometric metadata
// needed to interpret them. Frame never decodes its Data — for compressed
// transfer syntaxes Data is exactly the compressed bytes of that frame's
// fragment(s); decompression is a caller concern.
type Frame struct {
	Number                    int // 1-based
	Data                      []byte
	Rows                      int
	Columns                   int
	SamplesPerPixel           int
	BitsAllocated             int
	BitsStored                int
	PixelRepresentation       int
	PlanarConfiguration       int
	PhotometricInterpretation string
	TransferSyntaxUID         string
}
