package rom

import (
	"encoding/binary"
	"fmt"
	"strings"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
)

const (
	// ImageSize is the size of a cartridge image without copier header
	ImageSize = 0x80000
	// CopierHeaderSize is the size of the header some copiers prepend
	CopierHeaderSize = 512

	// HeaderAddress is the address of the LoROM internal header
	HeaderAddress = 0x7FC0
	// HeaderSize is the number of header bytes Header covers
	HeaderSize = 0x20

	// Title is the game title every supported image starts its header with
	Title = "SUPER MARIO KART"

	titleSize = 21
)

// Header is the SNES internal header of an image
type Header struct {
	Title              string // trailing spaces trimmed
	MapMode            uint8
	CartridgeType      uint8
	ROMSize            uint8
	RAMSize            uint8
	Country            uint8
	Licensee           uint8
	Version            uint8
	ChecksumComplement uint16
	Checksum           uint16
}

// Unpack reads the header from its bytes
func (h *Header) Unpack(data []byte) error {
	if len(data) < HeaderSize {
		return romerrors.NewSizeError("header", len(data), HeaderSize)
	}

	h.Title = strings.TrimRight(string(data[0:titleSize]), " \x00")
	h.MapMode = data[0x15]
	h.CartridgeType = data[0x16]
	h.ROMSize = data[0x17]
	h.RAMSize = data[0x18]
	h.Country = data[0x19]
	h.Licensee = data[0x1A]
	h.Version = data[0x1B]
	h.ChecksumComplement = binary.LittleEndian.Uint16(data[0x1C:0x1E])
	h.Checksum = binary.LittleEndian.Uint16(data[0x1E:0x20])
	return nil
}

// Pack serializes the header. The title is padded with spaces.
func (h *Header) Pack() []byte {
	buf := make([]byte, HeaderSize)

	copy(buf[0:titleSize], h.Title+strings.Repeat(" ", max(0, titleSize-len(h.Title))))
	buf[0x15] = h.MapMode
	buf[0x16] = h.CartridgeType
	buf[0x17] = h.ROMSize
	buf[0x18] = h.RAMSize
	buf[0x19] = h.Country
	buf[0x1A] = h.Licensee
	buf[0x1B] = h.Version
	binary.LittleEndian.PutUint16(buf[0x1C:0x1E], h.ChecksumComplement)
	binary.LittleEndian.PutUint16(buf[0x1E:0x20], h.Checksum)

	return buf
}

// Region returns the region encoded by the country byte
func (h *Header) Region() offsets.Region {
	return offsets.RegionFromCountry(h.Country)
}

// readHeader checks the title of an image and returns its header
func readHeader(image []byte) (*Header, error) {
	if len(image) < HeaderAddress+HeaderSize {
		return nil, romerrors.NewFormatError("image", len(image), ImageSize)
	}
	h := &Header{}
	if err := h.Unpack(image[HeaderAddress : HeaderAddress+HeaderSize]); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(h.Title, Title) {
		return nil, fmt.Errorf("%w: unexpected title %q", romerrors.ErrInvalidFormat, h.Title)
	}
	return h, nil
}

// splitCopierHeader separates an optional copier header from the image
func splitCopierHeader(data []byte) (copier, image []byte, err error) {
	switch len(data) {
	case ImageSize:
		return nil, data, nil
	case ImageSize + CopierHeaderSize:
		return data[:CopierHeaderSize], data[CopierHeaderSize:], nil
	}
	return nil, nil, romerrors.NewFormatError("image", len(data), ImageSize, ImageSize+CopierHeaderSize)
}
