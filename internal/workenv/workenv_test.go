package workenv

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fingerprint = "sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestGetBackupRoot(t *testing.T) {
	if got := GetBackupRoot("/srv/backups"); got != "/srv/backups" {
		t.Errorf("override ignored: %q", got)
	}
	if got := GetBackupRoot(""); !strings.Contains(got, "kartedit") {
		t.Errorf("default root %q does not name kartedit", got)
	}
}

func TestGetBackupPath(t *testing.T) {
	tests := []struct {
		name        string
		fingerprint string
		want        string
	}{
		{"fingerprint", fingerprint, "smk-01234567.sfc"},
		{"no fingerprint", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetBackupPath("/root", "/games/smk.sfc", tt.fingerprint)
			if filepath.Dir(got) != "/root" {
				t.Errorf("backup outside root: %q", got)
			}
			base := filepath.Base(got)
			if tt.want != "" && base != tt.want {
				t.Errorf("expected %q, got %q", tt.want, base)
			}
			if !strings.HasPrefix(base, "smk-") || filepath.Ext(base) != ".sfc" {
				t.Errorf("unexpected name %q", base)
			}
		})
	}
}

func TestCreateBackup(t *testing.T) {
	data := bytes.Repeat([]byte("cartridge image "), 64)

	for _, name := range CodecNames() {
		t.Run(name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "backups")
			codec, err := GetCodec(name)
			if err != nil {
				t.Fatal(err)
			}

			path, err := CreateBackup(root, "/games/smk.sfc", data, fingerprint, codec)
			if err != nil {
				t.Fatalf("create backup: %v", err)
			}
			if !strings.HasSuffix(path, ".sfc"+codec.Ext()) {
				t.Errorf("unexpected backup name %q", path)
			}
			restored, err := ReadBackup(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(restored, data) {
				t.Error("restored content differs")
			}
			if !IsValid(path, fingerprint) {
				t.Error("fresh backup is not valid")
			}
			if IsValid(path, "sha256:ffff") {
				t.Error("backup valid for another fingerprint")
			}

			marker, err := ReadMarker(path)
			if err != nil {
				t.Fatal(err)
			}
			if marker.Source != "/games/smk.sfc" || marker.Size != len(data) || marker.Codec != name {
				t.Errorf("unexpected marker %+v", marker)
			}

			again, err := CreateBackup(root, "/games/smk.sfc", data, fingerprint, codec)
			if err != nil || again != path {
				t.Errorf("second backup: %q, %v", again, err)
			}

			if err := Clean(path); err != nil {
				t.Fatal(err)
			}
			if IsValid(path, fingerprint) {
				t.Error("backup still valid after Clean")
			}
			if err := Clean(path); err != nil {
				t.Errorf("cleaning twice: %v", err)
			}
		})
	}
}

func TestCompressedBackupIsSmaller(t *testing.T) {
	data := make([]byte, 0x80000)
	codec, _ := GetCodec(CodecBzip2)
	path, err := CreateBackup(t.TempDir(), "smk.sfc", data, fingerprint, codec)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(data)) {
		t.Errorf("bzip2 backup is %d bytes", info.Size())
	}
}

func TestCreateBackupRemovesPartialBackup(t *testing.T) {
	root := t.TempDir()
	codec, _ := GetCodec(CodecNone)
	path := GetBackupPath(root, "/games/smk.sfc", fingerprint) + codec.Ext()

	// A directory where the marker goes makes writing the marker fail
	if err := os.MkdirAll(path+markerSuffix, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := CreateBackup(root, "/games/smk.sfc", []byte("image"), fingerprint, codec); err == nil {
		t.Fatal("expected an error when the marker cannot be written")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial backup left at %s: %v", path, err)
	}
}

func TestGetCodec(t *testing.T) {
	if codec, err := GetCodec(""); err != nil || codec.Name() != CodecNone {
		t.Errorf("empty name: %v, %v", codec, err)
	}
	if _, err := GetCodec("zstd"); err == nil {
		t.Error("expected error for an unknown codec")
	}
}

func TestIsValidTruncatedBackup(t *testing.T) {
	root := t.TempDir()
	codec, _ := GetCodec(CodecNone)
	path, err := CreateBackup(root, "smk.sfc", []byte("full image"), fingerprint, codec)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("cut"), 0644); err != nil {
		t.Fatal(err)
	}
	if IsValid(path, fingerprint) {
		t.Error("truncated backup reported valid")
	}
	if _, err := ReadBackup(path); err == nil {
		t.Error("expected error reading a truncated backup")
	}
}
