package pkg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/kartedit/kartedit/internal/workenv"
	"github.com/kartedit/kartedit/pkg/rom"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"github.com/kartedit/kartedit/pkg/rom/romtest"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "api-test",
		Level:  hclog.Trace,
		Output: os.Stderr,
	})
}

func writeImage(t *testing.T, region offsets.Region) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smk.sfc")
	if err := os.WriteFile(path, romtest.Image(t, region), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindTrack(t *testing.T) {
	game, err := OpenGame(writeImage(t, offsets.RegionUS), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref     string
		want    int
		wantErr error
	}{
		{"0", 0, nil},
		{"23", 23, nil},
		{"ghost 1", 0, nil},
		{"VANILLA  1", 20, nil},
		{"24", 0, romerrors.ErrInvalidTrackIndex},
		{"RAINBOW ROAD", 0, ErrTrackNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := FindTrack(game, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FindTrack(%q) = %d, %v; want %d", tt.ref, got, err, tt.want)
			}
		})
	}
}

func TestTrackExportImport(t *testing.T) {
	imagePath := writeImage(t, offsets.RegionEuro)
	game, err := OpenGame(imagePath, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	smkc := filepath.Join(dir, "track.smkc")
	if err := ExportTrack(game, 2, smkc, false, testLogger()); err != nil {
		t.Fatal(err)
	}
	mapOnly := filepath.Join(dir, "track.mkt")
	if err := ExportTrack(game, 2, mapOnly, true, testLogger()); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(mapOnly); err != nil || info.Size() != 128*128 {
		t.Fatalf("map-only export: %v, %v", info, err)
	}

	if err := ImportTrack(game, 7, smkc, testLogger()); err != nil {
		t.Fatal(err)
	}
	src, _ := game.Track(2)
	dst, _ := game.Track(7)
	if !bytes.Equal(src.Map().Bytes(), dst.Map().Bytes()) {
		t.Error("imported map differs")
	}
	if !bytes.Equal(src.AI().Bytes(), dst.AI().Bytes()) {
		t.Error("imported AI differs")
	}
	if !game.Modified() {
		t.Error("import did not modify the game")
	}

	if err := ImportTrack(game, 30, smkc, nil); !errors.Is(err, romerrors.ErrInvalidTrackIndex) {
		t.Errorf("expected ErrInvalidTrackIndex, got %v", err)
	}
}

func TestSaveGameWritesBackup(t *testing.T) {
	imagePath := writeImage(t, offsets.RegionUS)
	original, _ := os.ReadFile(imagePath)
	backupDir := filepath.Join(t.TempDir(), "backups")

	game, err := OpenGame(imagePath, nil)
	if err != nil {
		t.Fatal(err)
	}
	track, _ := game.Track(0)
	if err := track.Map().SetTile(0, 0, 0x42); err != nil {
		t.Fatal(err)
	}

	opts := SaveOptions{Backup: true, BackupDir: backupDir, Compression: workenv.CodecBzip2}
	backup, err := SaveGame(game, imagePath, opts, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if backup == "" {
		t.Fatal("no backup written")
	}
	saved, err := workenv.ReadBackup(backup)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(saved, original) {
		t.Error("backup does not hold the original image")
	}
	if !workenv.IsValid(backup, rom.Fingerprint(original)) {
		t.Error("backup marker invalid")
	}

	reloaded, err := OpenGame(imagePath, nil)
	if err != nil {
		t.Fatal(err)
	}
	rt, _ := reloaded.Track(0)
	if tile, _ := rt.Map().Tile(0, 0); tile != 0x42 {
		t.Errorf("saved tile = %#x", tile)
	}

	newPath := filepath.Join(t.TempDir(), "new.sfc")
	backup2, err := SaveGame(reloaded, newPath, opts, nil)
	if err != nil || backup2 != "" {
		t.Errorf("saving to a new file: backup %q, %v", backup2, err)
	}

	if err := RestoreBackup(backup, imagePath, testLogger()); err != nil {
		t.Fatal(err)
	}
	restored, _ := os.ReadFile(imagePath)
	if !bytes.Equal(restored, original) {
		t.Error("restore did not bring back the original image")
	}

	if _, err := SaveGame(reloaded, newPath, SaveOptions{Backup: true, Compression: "zstd"}, nil); err == nil {
		t.Error("expected error for an unknown codec")
	}
}

func TestTextsExportImport(t *testing.T) {
	game, err := OpenGame(writeImage(t, offsets.RegionJap), nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "texts.json")
	if err := ExportTexts(game, path); err != nil {
		t.Fatal(err)
	}
	if err := ImportTexts(game, path); err != nil {
		t.Fatal(err)
	}
	if game.Modified() {
		t.Error("re-importing exported texts modified the game")
	}

	if err := os.WriteFile(path, []byte(`{"collections": {"ModeNames": ["A"]}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ImportTexts(game, path); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestVerifyImage(t *testing.T) {
	path := writeImage(t, offsets.RegionUS)
	if err := VerifyImageWithLogger(path, testLogger()); err != nil {
		t.Fatalf("fixture failed verification: %v", err)
	}

	data, _ := os.ReadFile(path)
	data[rom.HeaderAddress+0x1E] ^= 0xFF
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	err := VerifyImageWithLogger(path, testLogger())
	if !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("expected ErrVerificationFailed, got %v", err)
	}

	if err := VerifyImageWithLogger(filepath.Join(t.TempDir(), "missing.sfc"), nil); err == nil {
		t.Error("expected error for a missing file")
	}
}
