package rom

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

const (
	checksumComplementAddress = HeaderAddress + 0x1C
	checksumAddress           = HeaderAddress + 0x1E
)

// Checksum computes the SNES checksum of an image: the 16-bit sum of every
// byte, taken with the complement field at 0xFFFF and the checksum at 0.
func Checksum(image []byte) uint16 {
	var sum uint16
	for i, b := range image {
		switch i {
		case checksumComplementAddress, checksumComplementAddress + 1:
			sum += 0xFF
		case checksumAddress, checksumAddress + 1:
		default:
			sum += uint16(b)
		}
	}
	return sum
}

// UpdateChecksum writes the checksum and its complement into the header
func UpdateChecksum(image []byte) {
	sum := Checksum(image)
	binary.LittleEndian.PutUint16(image[checksumComplementAddress:], ^sum)
	binary.LittleEndian.PutUint16(image[checksumAddress:], sum)
}

// VerifyChecksum reports whether the header checksum matches the image
func VerifyChecksum(image []byte) bool {
	if len(image) < checksumAddress+2 {
		return false
	}
	sum := Checksum(image)
	return binary.LittleEndian.Uint16(image[checksumAddress:]) == sum &&
		binary.LittleEndian.Uint16(image[checksumComplementAddress:]) == ^sum
}

// Fingerprint returns "sha256:hexvalue" for an image
func Fingerprint(image []byte) string {
	sum := sha256.Sum256(image)
	return "sha256:" + hex.EncodeToString(sum[:])
}
