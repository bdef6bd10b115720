package cache

import (
	"fmt"
	"math/bits"
)

// MaxAddressBits is the widest address the decoder can split.
const MaxAddressBits = 64

// Geometry is the shape of a set-associative cache. The zero value is not
// usable; build geometries with NewGeometry.
type Geometry struct {
	ways        int
	blockSize   int
	setCount    int
	addressBits int

	offsetBits int
	indexBits  int
	tagBits    int
}

// NewGeometry validates a cache shape. Block size and set count must be
// powers of two, and the offset and index fields must fit into the address.
func NewGeometry(ways, blockSize, setCount, addressBits int) (Geometry, error) {
	switch {
	case ways < 1:
		return Geometry{}, fmt.Errorf("%w: ways must be positive, got %d",
			ErrInvalidGeometry, ways)
	case !isPowerOfTwo(blockSize):
		return Geometry{}, fmt.Errorf(
			"%w: block size must be a power of two, got %d",
			ErrInvalidGeometry, blockSize)
	case !isPowerOfTwo(setCount):
		return Geometry{}, fmt.Errorf(
			"%w: set count must be a power of two, got %d",
			ErrInvalidGeometry, setCount)
	case addressBits < 1 || addressBits > MaxAddressBits:
		return Geometry{}, fmt.Errorf(
			"%w: address bits must be in [1, %d], got %d",
			ErrInvalidGeometry, MaxAddressBits, addressBits)
	}

	g := Geometry{
		ways:        ways,
		blockSize:   blockSize,
		setCount:    setCount,
		addressBits: addressBits,
		offsetBits:  bits.TrailingZeros(uint(blockSize)),
		indexBits:   bits.TrailingZeros(uint(setCount)),
	}
	g.tagBits = addressBits - g.offsetBits - g.indexBits

	if g.tagBits < 0 {
		return Geometry{}, fmt.Errorf(
			"%w: %d offset bits and %d index bits exceed %d address bits",
			ErrInvalidGeometry, g.offsetBits, g.indexBits, addressBits)
	}

	return g, nil
}

// MustNewGeometry is like NewGeometry but panics on an invalid shape.
func MustNewGeometry(ways, blockSize, setCount, addressBits int) Geometry {
	g, err := NewGeometry(ways, blockSize, setCount, addressBits)
	if err != nil {
		panic(err)
	}

	return g
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Ways returns the associativity.
func (g Geometry) Ways() int { return g.ways }

// BlockSize returns the number of bytes per block.
func (g Geometry) BlockSize() int { return g.blockSize }

// SetCount returns the number of sets.
func (g Geometry) SetCount() int { return g.setCount }

// AddressBits returns the address width.
func (g Geometry) AddressBits() int { return g.addressBits }

// OffsetBits returns the width of the offset field.
func (g Geometry) OffsetBits() int { return g.offsetBits }

// IndexBits returns the width of the index field.
func (g Geometry) IndexBits() int { return g.indexBits }

// TagBits returns the width of the tag field.
func (g Geometry) TagBits() int { return g.tagBits }

// Size returns the capacity in bytes.
func (g Geometry) Size() uint64 {
	return uint64(g.blockSize) * uint64(g.ways) * uint64(g.setCount)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d-way, %d sets, %dB blocks, %d-bit addresses",
		g.ways, g.setCount, g.blockSize, g.addressBits)
}

// DecodedAddress holds the three fields of an address.
type DecodedAddress struct {
	Tag    uint64
	Index  uint64
	Offset uint64
}

// Decode splits an address into tag, index and offset. Bits above
// AddressBits are ignored.
func (g Geometry) Decode(address uint64) DecodedAddress {
	address &= lowMask(g.addressBits)

	return DecodedAddress{
		Offset: address & lowMask(g.offsetBits),
		Index:  (address >> g.offsetBits) & lowMask(g.indexBits),
		Tag:    address >> (g.offsetBits + g.indexBits),
	}
}

// Compose is the inverse of Decode.
func (g Geometry) Compose(d DecodedAddress) uint64 {
	return d.Tag<<(g.offsetBits+g.indexBits) |
		d.Index<<g.offsetBits |
		d.Offset
}

func lowMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}

	return uint64(1)<<n - 1
}
