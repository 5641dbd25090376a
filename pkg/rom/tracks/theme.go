package tracks

import (
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/text"
)

// ThemeCount is the number of track themes
const ThemeCount = 8

// Theme is a track graphics set. Tracks reference themes, they do not own them.
type Theme struct {
	id   int
	name *text.TextItem
}

// NewTheme creates a theme
func NewTheme(id int, name *text.TextItem) *Theme {
	return &Theme{id: id, name: name}
}

// ID returns the theme id
func (t *Theme) ID() int {
	return t.id
}

// Name returns the theme name item
func (t *Theme) Name() *text.TextItem {
	return t.name
}

func (t *Theme) String() string {
	if t.name == nil {
		return fmt.Sprintf("theme %d", t.id)
	}
	return t.name.Value()
}

// Themes is the theme catalog of a game
type Themes struct {
	themes []*Theme
}

// NewThemes creates a catalog from theme names, in id order
func NewThemes(names []*text.TextItem) *Themes {
	c := &Themes{themes: make([]*Theme, len(names))}
	for i, name := range names {
		c.themes[i] = NewTheme(i, name)
	}
	return c
}

// Len returns the number of themes
func (c *Themes) Len() int {
	return len(c.themes)
}

// Get returns the theme with an id
func (c *Themes) Get(id int) (*Theme, error) {
	if id < 0 || id >= len(c.themes) {
		return nil, fmt.Errorf("%w: theme %d of %d", romerrors.ErrOutOfRange, id, len(c.themes))
	}
	return c.themes[id], nil
}

// IDOf returns the id of a theme of the catalog
func (c *Themes) IDOf(theme *Theme) (int, error) {
	for i, t := range c.themes {
		if t == theme {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: theme %v is not in the catalog", romerrors.ErrOutOfRange, theme)
}

// All returns the themes in id order
func (c *Themes) All() []*Theme {
	themes := make([]*Theme, len(c.themes))
	copy(themes, c.themes)
	return themes
}
