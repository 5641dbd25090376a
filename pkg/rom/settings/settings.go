// Package settings holds the game-wide editable data: menu and driver
// texts, track name suffixes and rank points.
package settings

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"github.com/kartedit/kartedit/pkg/rom/text"
)

// GameSettings groups the text collections and the rank points of a game.
// Collections a region does not have are nil.
type GameSettings struct {
	region offsets.Region
	table  *offsets.Table
	logger hclog.Logger

	ModeNames            *text.TextCollection
	GPCupSelectTexts     *text.TextCollection // nil on Jap cartridges
	GPResultsCupTexts    *text.TextCollection
	GPPodiumCupTexts     *text.TextCollection
	CourseSelectTexts    *text.TextCollection
	DriverNamesGPResults *text.TextCollection
	DriverNamesGPPodium  *text.TextCollection
	DriverNamesTimeTrial *text.TextCollection
	TrackNameSuffixes    *text.TextCollection
	RankPoints           *RankPoints
}

// Load reads the settings from an image
func Load(data []byte, table *offsets.Table, logger hclog.Logger) (*GameSettings, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &GameSettings{region: table.Region(), table: table, logger: logger}

	for _, layout := range text.Layouts {
		coll, err := layout.Read(data, table)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", layout.Name(), err)
		}
		if coll == nil {
			logger.Debug("⏭️ Collection absent for region", "collection", layout.Name(), "region", s.region)
			continue
		}
		*s.slot(layout.Field) = coll
	}

	suffixes, err := text.ReadSuffixes(data, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read track name suffixes: %w", err)
	}
	s.TrackNameSuffixes = suffixes

	address, err := table.Resolve(offsets.FieldRankPoints)
	if err != nil {
		return nil, err
	}
	if address+RankPointsSize > len(data) {
		return nil, fmt.Errorf("%w: rank points beyond image", romerrors.ErrInvalidSize)
	}
	if s.RankPoints, err = NewRankPoints(data[address : address+RankPointsSize]); err != nil {
		return nil, err
	}

	logger.Trace("✅ Settings loaded", "region", s.region, "collections", len(s.Collections()))
	return s, nil
}

func (s *GameSettings) slot(field offsets.Field) **text.TextCollection {
	switch field {
	case offsets.FieldModeNames:
		return &s.ModeNames
	case offsets.FieldGPCupSelectTexts:
		return &s.GPCupSelectTexts
	case offsets.FieldGPResultsCupTexts:
		return &s.GPResultsCupTexts
	case offsets.FieldGPPodiumCupTexts:
		return &s.GPPodiumCupTexts
	case offsets.FieldCourseSelectTexts:
		return &s.CourseSelectTexts
	case offsets.FieldDriverNamesGPResults:
		return &s.DriverNamesGPResults
	case offsets.FieldDriverNamesGPPodium:
		return &s.DriverNamesGPPodium
	case offsets.FieldDriverNamesTimeTrial:
		return &s.DriverNamesTimeTrial
	case offsets.FieldTrackNameSuffixes:
		return &s.TrackNameSuffixes
	}
	return nil
}

// Region returns the region of the settings
func (s *GameSettings) Region() offsets.Region {
	return s.region
}

// Collection returns the collection stored at a field, if the region has it
func (s *GameSettings) Collection(field offsets.Field) (*text.TextCollection, bool) {
	slot := s.slot(field)
	if slot == nil || *slot == nil {
		return nil, false
	}
	return *slot, true
}

// Collections returns every present text collection, suffixes last
func (s *GameSettings) Collections() []*text.TextCollection {
	var colls []*text.TextCollection
	for _, layout := range text.Layouts {
		if coll, ok := s.Collection(layout.Field); ok {
			colls = append(colls, coll)
		}
	}
	if s.TrackNameSuffixes != nil {
		colls = append(colls, s.TrackNameSuffixes)
	}
	return colls
}

// Modified reports whether any present collection or the rank points changed
func (s *GameSettings) Modified() bool {
	for _, coll := range s.Collections() {
		if coll.Modified() {
			return true
		}
	}
	return s.RankPoints.Modified()
}

// ResetModifiedState clears the modified flags
func (s *GameSettings) ResetModifiedState() {
	for _, coll := range s.Collections() {
		coll.ResetModifiedState()
	}
	s.RankPoints.ResetModifiedState()
}

// Save writes every present collection and the rank points into the image
func (s *GameSettings) Save(data []byte) error {
	for _, coll := range s.Collections() {
		if err := coll.Save(data); err != nil {
			return err
		}
	}

	address, err := s.table.Resolve(offsets.FieldRankPoints)
	if err != nil {
		return err
	}
	if address+RankPointsSize > len(data) {
		return fmt.Errorf("%w: rank points beyond image", romerrors.ErrInvalidSize)
	}
	copy(data[address:], s.RankPoints.Bytes())
	return nil
}
