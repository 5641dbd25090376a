package pkg

import "errors"

var (
	// Verification errors 🔍
	ErrChecksumMismatch    = errors.New("❌ header checksum does not match the image")
	ErrVerificationFailed  = errors.New("❌ image verification failed")
	ErrTrackIndexAmbiguous = errors.New("❌ track name matches several tracks")
	ErrTrackNotFound       = errors.New("❌ no track with that name")
)
