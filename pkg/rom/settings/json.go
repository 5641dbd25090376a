package settings

import (
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"github.com/kartedit/kartedit/pkg/rom/text"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ExportJSON returns the texts and rank points as an indented JSON document:
//
//	{"region": "us", "collections": {"ModeNames": [...], ...}, "rankPoints": [...]}
func (s *GameSettings) ExportJSON() ([]byte, error) {
	doc := []byte(`{}`)
	var err error

	if doc, err = sjson.SetBytes(doc, "region", s.region.String()); err != nil {
		return nil, err
	}
	for _, coll := range s.Collections() {
		if doc, err = sjson.SetBytes(doc, "collections."+coll.Name(), coll.Values()); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", coll.Name(), err)
		}
	}
	if doc, err = sjson.SetBytes(doc, "rankPoints", s.RankPoints.Values()); err != nil {
		return nil, err
	}

	return pretty.Pretty(doc), nil
}

// ImportJSON applies a document produced by ExportJSON. Every value is
// checked before any is stored; on error the settings are unchanged.
// Collections and rank points missing from the document are left as is.
func (s *GameSettings) ImportJSON(doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return fmt.Errorf("%w: settings document is not valid JSON", romerrors.ErrInvalidFormat)
	}
	root := gjson.ParseBytes(doc)

	if region := root.Get("region"); region.Exists() && region.String() != s.region.String() {
		s.logger.Warn("⚠️ Importing texts exported from another region", "from", region.String(), "to", s.region)
	}

	type update struct {
		coll   *text.TextCollection
		values []string
	}
	var updates []update
	var failure error

	root.Get("collections").ForEach(func(key, value gjson.Result) bool {
		coll, err := s.collectionNamed(key.String())
		if err != nil {
			failure = err
			return false
		}
		if !value.IsArray() {
			failure = fmt.Errorf("%w: %s is not an array", romerrors.ErrInvalidFormat, key.String())
			return false
		}

		var values []string
		for _, v := range value.Array() {
			values = append(values, v.String())
		}
		if len(values) != coll.Len() {
			failure = fmt.Errorf("%w: %s has %d items, got %d values", romerrors.ErrOutOfRange, coll.Name(), coll.Len(), len(values))
			return false
		}
		if err := coll.Validate(values); err != nil {
			failure = err
			return false
		}
		updates = append(updates, update{coll: coll, values: values})
		return true
	})
	if failure != nil {
		return failure
	}

	var points []int
	if rank := root.Get("rankPoints"); rank.Exists() {
		if !rank.IsArray() {
			return fmt.Errorf("%w: rankPoints is not an array", romerrors.ErrInvalidFormat)
		}
		for _, v := range rank.Array() {
			if v.Type != gjson.Number || v.Num != float64(v.Int()) {
				return fmt.Errorf("%w: rank points %s is not an integer", romerrors.ErrInvalidFormat, v.Raw)
			}
			p := v.Int()
			if p < 0 || p > 0xFFFF {
				return fmt.Errorf("%w: %d rank points", romerrors.ErrOutOfRange, p)
			}
			points = append(points, int(p))
		}
		if len(points) != PlaceCount {
			return fmt.Errorf("%w: %d rank point values, expected %d", romerrors.ErrOutOfRange, len(points), PlaceCount)
		}
	}

	for _, u := range updates {
		if err := u.coll.SetValues(u.values); err != nil {
			return err
		}
	}
	for place, p := range points {
		if err := s.RankPoints.Set(place, p); err != nil {
			return err
		}
	}

	s.logger.Debug("📥 Imported settings", "collections", len(updates), "rankPoints", len(points) > 0)
	return nil
}

func (s *GameSettings) collectionNamed(name string) (*text.TextCollection, error) {
	for _, field := range offsets.Fields() {
		if field.String() != name {
			continue
		}
		if coll, ok := s.Collection(field); ok {
			return coll, nil
		}
		break
	}
	return nil, fmt.Errorf("%w: no text collection %q in region %s", romerrors.ErrUnknownField, name, s.region)
}
