package workenv

import (
	"encoding/json"
	"os"
	"time"
)

const markerSuffix = ".backup.json"

// BackupMarker records what a backup file holds
type BackupMarker struct {
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Fingerprint string    `json:"fingerprint"`
	Codec       string    `json:"codec"`
	Size        int       `json:"size"`        // image size
	StoredSize  int       `json:"stored_size"` // backup file size
}

// IsValid checks that a backup is complete and holds the expected content
func IsValid(path, fingerprint string) bool {
	marker, err := ReadMarker(path)
	if err != nil {
		return false
	}

	if fingerprint != "" && marker.Fingerprint != fingerprint {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() == int64(marker.StoredSize)
}

// ReadMarker reads the marker written next to a backup
func ReadMarker(path string) (*BackupMarker, error) {
	data, err := os.ReadFile(path + markerSuffix)
	if err != nil {
		return nil, err
	}

	var marker BackupMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, err
	}
	return &marker, nil
}

// MarkComplete writes the marker of a finished backup, stamped with the
// current time
func MarkComplete(path string, marker BackupMarker) error {
	marker.Timestamp = time.Now()

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path+markerSuffix, data, 0644)
}

// Clean removes a backup and its marker
func Clean(path string) error {
	os.Remove(path + markerSuffix)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
