// Package pkg is the entry point used by the kartedit command: it opens
// images, moves tracks and texts in and out of them and saves them back.
package pkg

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/kartedit/kartedit/internal/workenv"
	"github.com/kartedit/kartedit/pkg/logging"
	"github.com/kartedit/kartedit/pkg/rom"
)

// SaveOptions controls how SaveGame writes an image
type SaveOptions struct {
	Backup      bool   // copy the file about to be overwritten first
	BackupDir   string // backup directory, platform default when empty
	Compression string // backup codec name, uncompressed when empty
}

// OpenGame loads a cartridge image file
func OpenGame(path string, logger hclog.Logger) (*rom.Game, error) {
	logger = logging.OrNull(logger)
	logger.Debug("📂 Opening image", "path", path)
	return rom.LoadFileWithLogger(path, logger.Named("rom"))
}

// SaveGame saves a game to path. When path already holds a file and
// backups are enabled, that file is copied to the backup directory first.
// It returns the backup path, if one was written.
func SaveGame(game *rom.Game, path string, opts SaveOptions, logger hclog.Logger) (string, error) {
	logger = logging.OrNull(logger)

	var backup string
	if opts.Backup {
		codec, err := workenv.GetCodec(opts.Compression)
		if err != nil {
			return "", err
		}
		existing, err := os.ReadFile(path)
		switch {
		case err == nil:
			root := workenv.GetBackupRoot(opts.BackupDir)
			if backup, err = workenv.CreateBackup(root, path, existing, rom.Fingerprint(existing), codec); err != nil {
				return "", err
			}
			logger.Info("🗄️ Backed up image", "path", path, "backup", backup)
		case !os.IsNotExist(err):
			return "", fmt.Errorf("failed to read image for backup: %w", err)
		}
	}

	if err := game.SaveFile(path); err != nil {
		return backup, err
	}
	return backup, nil
}

// RestoreBackup writes the image held by a backup to path, after checking
// that it still loads
func RestoreBackup(backupPath, path string, logger hclog.Logger) error {
	data, err := workenv.ReadBackup(backupPath)
	if err != nil {
		return err
	}
	if _, err := rom.LoadWithLogger(data, logging.OrNull(logger).Named("rom")); err != nil {
		return fmt.Errorf("backup %s: %w", backupPath, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	logging.OrNull(logger).Info("♻️ Restored image", "backup", backupPath, "path", path)
	return nil
}

// ImportTrack replaces a track of the game with the content of a .mkt or
// .smkc file
func ImportTrack(game *rom.Game, index int, path string, logger hclog.Logger) error {
	track, err := game.Track(index)
	if err != nil {
		return err
	}
	if err := track.Import(path); err != nil {
		return err
	}
	logging.OrNull(logger).Info("📥 Imported track", "index", index, "name", track.Name().String(), "file", path)
	return nil
}

// ExportTrack writes a track of the game to a file: SMKC, or MKT when the
// path ends in .mkt. mapOnly writes the bare map.
func ExportTrack(game *rom.Game, index int, path string, mapOnly bool, logger hclog.Logger) error {
	track, err := game.Track(index)
	if err != nil {
		return err
	}
	if mapOnly {
		err = track.ExportMapOnly(path)
	} else {
		err = track.Export(path)
	}
	if err != nil {
		return err
	}
	logging.OrNull(logger).Info("📤 Exported track", "index", index, "name", track.Name().String(), "file", path)
	return nil
}

// ExportTexts writes the texts and rank points of the game as JSON
func ExportTexts(game *rom.Game, path string) error {
	doc, err := game.Settings().ExportJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, doc, 0644); err != nil {
		return fmt.Errorf("failed to write texts: %w", err)
	}
	return nil
}

// ImportTexts applies a JSON document written by ExportTexts
func ImportTexts(game *rom.Game, path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read texts: %w", err)
	}
	if err := game.Settings().ImportJSON(doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// FindTrack resolves a track reference: an index, or a track name such as
// "MARIO CIRCUIT 1" compared without case
func FindTrack(game *rom.Game, ref string) (int, error) {
	if index, err := strconv.Atoi(ref); err == nil {
		if _, err := game.Track(index); err != nil {
			return 0, err
		}
		return index, nil
	}

	found := -1
	for _, track := range game.Tracks() {
		if !strings.EqualFold(plainName(track.Name().String()), plainName(ref)) {
			continue
		}
		if found >= 0 {
			return 0, fmt.Errorf("%w: %q", ErrTrackIndexAmbiguous, ref)
		}
		found = track.Index()
	}
	if found < 0 {
		return 0, fmt.Errorf("%w: %q", ErrTrackNotFound, ref)
	}
	return found, nil
}

func plainName(name string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "\u2009", " ")), " ")
}
