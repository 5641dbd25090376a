// Package rom loads and saves whole cartridge images. A Game owns the image
// buffer and every entity read from it.
package rom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"github.com/kartedit/kartedit/pkg/rom/settings"
	"github.com/kartedit/kartedit/pkg/rom/text"
	"github.com/kartedit/kartedit/pkg/rom/tracks"
)

// AIBankSize is the size of the area holding the AI blocks of every track
const AIBankSize = 0x4000

// Game is a loaded cartridge image
type Game struct {
	copier   []byte // copier header, nil when absent
	image    []byte
	header   *Header
	table    *offsets.Table
	settings *settings.GameSettings
	themes   *tracks.Themes
	tracks   []*tracks.Track
	logger   hclog.Logger
}

// Load reads a game from an image, with or without copier header
func Load(data []byte) (*Game, error) {
	return LoadWithLogger(data, hclog.NewNullLogger())
}

// LoadWithLogger reads a game from an image and logs to logger
func LoadWithLogger(data []byte, logger hclog.Logger) (*Game, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	copier, image, err := splitCopierHeader(data)
	if err != nil {
		return nil, err
	}
	header, err := readHeader(image)
	if err != nil {
		return nil, err
	}

	g := &Game{
		copier: bytes.Clone(copier),
		image:  bytes.Clone(image),
		header: header,
		logger: logger,
	}
	logger.Debug("🎮 Loading game", "region", header.Region(), "copierHeader", copier != nil)

	if g.table, err = offsets.NewTable(header.Region()); err != nil {
		return nil, err
	}
	if g.settings, err = settings.Load(g.image, g.table, logger.Named("settings")); err != nil {
		return nil, err
	}
	g.themes = tracks.NewThemes(g.settings.CourseSelectTexts.Items()[text.CourseSelectGroups:])

	if err := g.readTracks(); err != nil {
		return nil, err
	}

	logger.Debug("✅ Game loaded", "region", header.Region(), "tracks", len(g.tracks))
	return g, nil
}

// LoadFile reads a game from an image file
func LoadFile(path string) (*Game, error) {
	return LoadFileWithLogger(path, hclog.NewNullLogger())
}

// LoadFileWithLogger reads a game from an image file and logs to logger
func LoadFileWithLogger(path string, logger hclog.Logger) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	g, err := LoadWithLogger(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func (g *Game) readTracks() error {
	ctx := tracks.Context{
		Table:    g.table,
		Themes:   g.themes,
		Names:    g.settings.CourseSelectTexts,
		Suffixes: g.settings.TrackNameSuffixes,
		Logger:   g.logger.Named("tracks"),
	}

	bank, err := g.table.Resolve(offsets.FieldAIData)
	if err != nil {
		return err
	}
	pointers, err := g.table.Resolve(offsets.FieldAIOffsets)
	if err != nil {
		return err
	}
	if bank+AIBankSize > len(g.image) || pointers+tracks.Count*2 > len(g.image) {
		return fmt.Errorf("%w: AI data beyond image", romerrors.ErrInvalidSize)
	}

	g.tracks = make([]*tracks.Track, tracks.Count)
	for i := range g.tracks {
		offset := int(binary.LittleEndian.Uint16(g.image[pointers+i*2:]))
		if offset >= AIBankSize {
			return fmt.Errorf("%w: AI offset 0x%X of track %d", romerrors.ErrInvalidFormat, offset, i)
		}
		block := g.image[bank+offset : bank+AIBankSize]

		track, err := tracks.Read(g.image, i, block, ctx)
		if err != nil {
			return err
		}
		g.tracks[i] = track
		g.logger.Trace("🏎️ Track read", "index", i, "kind", track.Kind(), "name", track.Name().String())
	}
	return nil
}

// Save writes every entity into a copy of the image and returns it, with
// the copier header if the loaded image had one. The copy becomes the
// game image only once every write succeeded.
func (g *Game) Save() ([]byte, error) {
	staged := bytes.Clone(g.image)
	modified := g.Modified()

	if err := g.settings.Save(staged); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	for _, track := range g.tracks {
		if err := track.Save(staged); err != nil {
			return nil, fmt.Errorf("failed to save track %d: %w", track.Index(), err)
		}
	}
	if g.aiModified() {
		if err := g.packAI(staged); err != nil {
			return nil, err
		}
	}
	if modified {
		UpdateChecksum(staged)
		g.logger.Debug("📦 Checksum updated", "checksum", fmt.Sprintf("%#04x", Checksum(staged)))
	}

	var header Header
	if err := header.Unpack(staged[HeaderAddress : HeaderAddress+HeaderSize]); err != nil {
		return nil, err
	}
	g.image = staged
	g.header = &header
	g.ResetModifiedState()

	out := make([]byte, 0, len(g.copier)+len(staged))
	out = append(out, g.copier...)
	out = append(out, staged...)
	return out, nil
}

// SaveFile saves the game and writes the image to path
func (g *Game) SaveFile(path string) error {
	data, err := g.Save()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	g.logger.Info("💾 Image saved", "path", path, "size", len(data))
	return nil
}

func (g *Game) aiModified() bool {
	for _, track := range g.tracks {
		if track.AIModified() {
			return true
		}
	}
	return false
}

// packAI lays the AI blocks of every track out back to back in the bank
// and rewrites the pointer table. The bank tail is filled with 0xFF.
func (g *Game) packAI(image []byte) error {
	blank := bytes.Repeat([]byte{0xFF}, AIBankSize)
	bank := blank[:0]
	pointers := make([]byte, tracks.Count*2)

	for i, track := range g.tracks {
		block := track.AI().Bytes()
		if len(bank)+len(block) > AIBankSize {
			return fmt.Errorf("%w: AI of track %d ends at 0x%X, bank holds 0x%X bytes",
				romerrors.ErrCapacityExceeded, i, len(bank)+len(block), AIBankSize)
		}
		binary.LittleEndian.PutUint16(pointers[i*2:], uint16(len(bank)))
		bank = append(bank, block...)
	}
	g.logger.Debug("📦 Packed AI bank", "used", len(bank), "free", AIBankSize-len(bank))

	copy(image[g.table.MustResolve(offsets.FieldAIOffsets):], pointers)
	copy(image[g.table.MustResolve(offsets.FieldAIData):], blank)
	return nil
}

// Modified reports whether anything changed since load or the last save
func (g *Game) Modified() bool {
	if g.settings.Modified() {
		return true
	}
	for _, track := range g.tracks {
		if track.Modified() {
			return true
		}
	}
	return false
}

// ResetModifiedState clears the modified flags of every entity
func (g *Game) ResetModifiedState() {
	g.settings.ResetModifiedState()
	for _, track := range g.tracks {
		track.ResetModifiedState()
	}
}

// Track returns the track at index, GP tracks first
func (g *Game) Track(index int) (*tracks.Track, error) {
	if index < 0 || index >= len(g.tracks) {
		return nil, fmt.Errorf("%w: %d", romerrors.ErrInvalidTrackIndex, index)
	}
	return g.tracks[index], nil
}

// Tracks returns every track
func (g *Game) Tracks() []*tracks.Track {
	return append([]*tracks.Track(nil), g.tracks...)
}

// GPTracks returns the Grand Prix tracks, cup by cup
func (g *Game) GPTracks() []*tracks.Track {
	return append([]*tracks.Track(nil), g.tracks[:tracks.GPCount]...)
}

// BattleTracks returns the battle tracks
func (g *Game) BattleTracks() []*tracks.Track {
	return append([]*tracks.Track(nil), g.tracks[tracks.GPCount:]...)
}

// Themes returns the theme catalog
func (g *Game) Themes() *tracks.Themes {
	return g.themes
}

// Settings returns the game-wide settings
func (g *Game) Settings() *settings.GameSettings {
	return g.settings
}

// Region returns the region of the image
func (g *Game) Region() offsets.Region {
	return g.table.Region()
}

// Header returns the internal header as of load or the last save
func (g *Game) Header() Header {
	return *g.header
}

// HasCopierHeader reports whether the image carries a copier header
func (g *Game) HasCopierHeader() bool {
	return g.copier != nil
}

// Fingerprint identifies the image as of load or the last save, without copier header
func (g *Game) Fingerprint() string {
	return Fingerprint(g.image)
}
