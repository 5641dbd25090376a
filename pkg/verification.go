package pkg

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/kartedit/kartedit/pkg/logging"
	"github.com/kartedit/kartedit/pkg/rom"
	"github.com/kartedit/kartedit/pkg/rom/tracks"
)

// VerifyImageWithLogger checks an image file: that it loads, that its
// header checksum matches and that its AI data fits the bank. It returns
// the problems found, wrapped in ErrVerificationFailed.
func VerifyImageWithLogger(path string, logger hclog.Logger) error {
	logger = logging.OrNull(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	logger.Info("Verifying image")

	errors := []string{}

	game, err := rom.LoadWithLogger(data, logger.Named("rom"))
	if err != nil {
		logger.Error("Load failed", "error", err)
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	logger.Info("✓ Image structure valid", "region", game.Region())

	image := data
	if game.HasCopierHeader() {
		image = data[rom.CopierHeaderSize:]
	}
	if !rom.VerifyChecksum(image) {
		h := game.Header()
		errors = append(errors, fmt.Sprintf("%v: stored %#04x, computed %#04x", ErrChecksumMismatch, h.Checksum, rom.Checksum(image)))
		logger.Error("Checksum verification failed", "stored", h.Checksum, "computed", rom.Checksum(image))
	} else {
		logger.Info("✓ Header checksum valid")
	}

	used := 0
	for _, track := range game.Tracks() {
		used += track.AI().EncodedSize()
		if track.AI().Len() == 0 {
			errors = append(errors, fmt.Sprintf("track %d (%s) has no AI", track.Index(), track.Name()))
			logger.Error("Track has no AI", "index", track.Index())
		}
	}
	if used > rom.AIBankSize {
		errors = append(errors, fmt.Sprintf("AI data takes %d bytes, bank holds %d", used, rom.AIBankSize))
		logger.Error("AI bank overflow", "used", used, "size", rom.AIBankSize)
	} else {
		logger.Info("✓ AI data fits", "used", used, "tracks", tracks.Count)
	}

	if len(errors) == 0 {
		logger.Info("✓ Image verification passed")
		return nil
	}

	logger.Error("✗ Image verification failed", "error_count", len(errors))
	for _, err := range errors {
		logger.Error("  Verification error", "details", err)
	}
	return fmt.Errorf("%w: %d problems, first: %s", ErrVerificationFailed, len(errors), errors[0])
}
