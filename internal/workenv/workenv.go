// Package workenv manages the backup directory where images are copied
// before they are overwritten in place
package workenv

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetBackupRoot returns the backup directory. A non-empty override wins.
func GetBackupRoot(override string) string {
	if override != "" {
		return override
	}

	// Use platform-specific defaults
	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "kartedit", "backups")
		}
	case "linux":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "kartedit", "backups")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", "kartedit", "backups")
		}
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "kartedit", "backups")
		}
	}

	// Fallback to temp directory
	return filepath.Join(os.TempDir(), "kartedit", "backups")
}

// GetBackupPath returns where the backup of an image goes. Images with the
// same content share a backup.
func GetBackupPath(root, imagePath, fingerprint string) string {
	var identifier string
	if _, hexValue, ok := strings.Cut(fingerprint, ":"); ok && len(hexValue) >= 8 {
		identifier = hexValue[:8]
	} else {
		// Fall back to a hash of the image path
		h := sha256.Sum256([]byte(imagePath))
		identifier = hex.EncodeToString(h[:])[:8]
	}

	base := filepath.Base(imagePath)
	ext := filepath.Ext(base)
	return filepath.Join(root, strings.TrimSuffix(base, ext)+"-"+identifier+ext)
}

// CreateBackup stores data, encoded with codec, at its backup path under
// root and returns the path. An existing valid backup of the same content
// is kept as is.
func CreateBackup(root, imagePath string, data []byte, fingerprint string, codec Codec) (string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := GetBackupPath(root, imagePath, fingerprint) + codec.Ext()
	if IsValid(path, fingerprint) {
		return path, nil
	}

	stored, err := codec.Encode(data)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, stored, 0644); err != nil {
		_ = Clean(path)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	marker := BackupMarker{
		Source:      imagePath,
		Fingerprint: fingerprint,
		Codec:       codec.Name(),
		Size:        len(data),
		StoredSize:  len(stored),
	}
	if err := MarkComplete(path, marker); err != nil {
		// A backup without its marker is never reused or restored
		_ = Clean(path)
		return "", fmt.Errorf("failed to write backup marker: %w", err)
	}
	return path, nil
}

// ReadBackup returns the image data held by a backup
func ReadBackup(path string) ([]byte, error) {
	marker, err := ReadMarker(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup marker: %w", err)
	}
	codec, err := GetCodec(marker.Codec)
	if err != nil {
		return nil, err
	}

	stored, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	data, err := codec.Decode(stored)
	if err != nil {
		return nil, err
	}
	if len(data) != marker.Size {
		return nil, fmt.Errorf("backup %s holds %d bytes, expected %d", path, len(data), marker.Size)
	}
	return data, nil
}
