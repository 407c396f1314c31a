package pixel

// Packed is the constraint for sub-byte pixel types. The value is the raw
// sample, 0 to 2^depth-1; only depths 1, 2 and 4 have a packed type.
type Packed interface {
	~uint8
	Format() Format
}

type (
	Gray1  uint8
	Gray2  uint8
	Gray4  uint8
	Index1 uint8
	Index2 uint8
	Index4 uint8
)

func (Gray1) Format() Format  { return FormatGray1 }
func (Gray2) Format() Format  { return FormatGray2 }
func (Gray4) Format() Format  { return FormatGray4 }
func (Index1) Format() Format { return FormatIndex1 }
func (Index2) Format() Format { return FormatIndex2 }
func (Index4) Format() Format { return FormatIndex4 }

// BitMask returns the mask covering one packed sample of P.
func BitMask[P Packed]() uint8 {
	var p P
	return uint8(1)<<p.Format().Depth - 1
}
