package text

import (
	"bytes"
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
)

// TextItem is one text slot of a collection
type TextItem struct {
	collection *TextCollection
	index      int
	value      string
	raw        []byte
	modified   bool
}

// Value returns the decoded text
func (t *TextItem) Value() string {
	return t.value
}

func (t *TextItem) String() string {
	return t.value
}

// Index returns the position of the item in its collection
func (t *TextItem) Index() int {
	return t.index
}

// Capacity returns the slot size in bytes
func (t *TextItem) Capacity() int {
	return len(t.raw)
}

// EncodedLength returns how many bytes of the slot the text uses
func (t *TextItem) EncodedLength() int {
	if n := bytes.IndexByte(t.raw, Terminator); n >= 0 {
		return n
	}
	return len(t.raw)
}

// Modified reports whether the item changed since load or the last reset
func (t *TextItem) Modified() bool {
	return t.modified
}

// Bytes returns a copy of the slot bytes
func (t *TextItem) Bytes() []byte {
	return bytes.Clone(t.raw)
}

// SetValue encodes and stores a new text. The slot is left untouched on
// error, and when value is the current text: the raw bytes may hold
// undecodable characters or data after the terminator.
func (t *TextItem) SetValue(value string) error {
	if value == t.value {
		return nil
	}
	slot, err := t.collection.converter.EncodeSlot(value, len(t.raw))
	if err != nil {
		return fmt.Errorf("%s[%d]: %w", t.collection.name, t.index, err)
	}
	if bytes.Equal(slot, t.raw) {
		return nil
	}

	t.raw = slot
	t.value = t.collection.converter.Decode(slot)
	t.modified = true
	t.collection.feed.Emit(event.Change{
		Source: "text/" + t.collection.name,
		Field:  fmt.Sprintf("Item[%d]", t.index),
	})
	return nil
}

// TextCollection is a fixed number of equally sized text slots stored
// back to back in the cartridge image. Items can optionally be addressed
// by (group, row).
type TextCollection struct {
	name      string
	offset    int
	slotSize  int
	groups    int
	rows      int
	converter *Converter
	items     []*TextItem
	feed      event.Feed
}

// NewTextCollection reads count slots sharing totalSize bytes at offset.
// Each slot gets totalSize / count bytes.
func NewTextCollection(name string, data []byte, offset, count, totalSize int, converter *Converter) (*TextCollection, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %s needs at least one item", romerrors.ErrOutOfRange, name)
	}
	return newCollection(name, data, offset, count, totalSize/count, 1, count, converter)
}

// NewGroupedTextCollection reads groups*rows slots sharing totalSize bytes at offset,
// addressed with Get(group, row).
func NewGroupedTextCollection(name string, data []byte, offset, groups, rows, totalSize int, converter *Converter) (*TextCollection, error) {
	if groups <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %s needs at least one group and row", romerrors.ErrOutOfRange, name)
	}
	count := groups * rows
	return newCollection(name, data, offset, count, totalSize/count, groups, rows, converter)
}

// NewFreeTextCollection reads count slots of slotSize bytes each
func NewFreeTextCollection(name string, data []byte, offset, count, slotSize int, converter *Converter) (*TextCollection, error) {
	return newCollection(name, data, offset, count, slotSize, 1, count, converter)
}

func newCollection(name string, data []byte, offset, count, slotSize, groups, rows int, converter *Converter) (*TextCollection, error) {
	if slotSize <= 0 {
		return nil, fmt.Errorf("%w: %s slot size %d", romerrors.ErrOutOfRange, name, slotSize)
	}
	end := offset + count*slotSize
	if offset < 0 || end > len(data) {
		return nil, fmt.Errorf("%w: %s spans 0x%X-0x%X beyond image of %d bytes", romerrors.ErrInvalidSize, name, offset, end, len(data))
	}

	c := &TextCollection{
		name:      name,
		offset:    offset,
		slotSize:  slotSize,
		groups:    groups,
		rows:      rows,
		converter: converter,
		items:     make([]*TextItem, count),
	}

	for i := range c.items {
		raw := bytes.Clone(data[offset+i*slotSize : offset+(i+1)*slotSize])
		c.items[i] = &TextItem{
			collection: c,
			index:      i,
			value:      converter.Decode(raw),
			raw:        raw,
		}
	}

	return c, nil
}

// Name returns the collection name
func (c *TextCollection) Name() string {
	return c.name
}

// Len returns the number of items
func (c *TextCollection) Len() int {
	return len(c.items)
}

// SlotSize returns the byte capacity of each item
func (c *TextCollection) SlotSize() int {
	return c.slotSize
}

// Converter returns the collection's text converter
func (c *TextCollection) Converter() *Converter {
	return c.converter
}

// Feed returns the change feed of the collection
func (c *TextCollection) Feed() *event.Feed {
	return &c.feed
}

// Item returns the item at index
func (c *TextCollection) Item(index int) (*TextItem, error) {
	if index < 0 || index >= len(c.items) {
		return nil, fmt.Errorf("%w: %s item %d of %d", romerrors.ErrOutOfRange, c.name, index, len(c.items))
	}
	return c.items[index], nil
}

// Items returns all items in order
func (c *TextCollection) Items() []*TextItem {
	items := make([]*TextItem, len(c.items))
	copy(items, c.items)
	return items
}

// Groups returns the number of groups and rows per group
func (c *TextCollection) Groups() (groups, rows int) {
	return c.groups, c.rows
}

// Get returns the item of a group row
func (c *TextCollection) Get(group, row int) (*TextItem, error) {
	if group < 0 || group >= c.groups || row < 0 || row >= c.rows {
		return nil, fmt.Errorf("%w: %s group %d row %d (%dx%d)", romerrors.ErrOutOfRange, c.name, group, row, c.groups, c.rows)
	}
	return c.items[group*c.rows+row], nil
}

// Values returns the decoded text of every item
func (c *TextCollection) Values() []string {
	values := make([]string, len(c.items))
	for i, item := range c.items {
		values[i] = item.value
	}
	return values
}

// SetValues replaces every item's text. Either all values are stored or,
// if any fails to encode, none is.
func (c *TextCollection) SetValues(values []string) error {
	if len(values) != len(c.items) {
		return fmt.Errorf("%w: %s has %d items, got %d values", romerrors.ErrOutOfRange, c.name, len(c.items), len(values))
	}
	if err := c.Validate(values); err != nil {
		return err
	}
	for i, value := range values {
		if err := c.items[i].SetValue(value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every value would encode into its slot. Values
// equal to the current text of their item are kept as is and always pass.
func (c *TextCollection) Validate(values []string) error {
	for i, value := range values {
		if i < len(c.items) && value == c.items[i].value {
			continue
		}
		if _, err := c.converter.EncodeSlot(value, c.slotSize); err != nil {
			return fmt.Errorf("%s[%d]: %w", c.name, i, err)
		}
	}
	return nil
}

// Modified reports whether any item changed
func (c *TextCollection) Modified() bool {
	for _, item := range c.items {
		if item.modified {
			return true
		}
	}
	return false
}

// ResetModifiedState clears the modified flag of every item
func (c *TextCollection) ResetModifiedState() {
	for _, item := range c.items {
		item.modified = false
	}
}

// Save writes every slot back to the image at the collection offset
func (c *TextCollection) Save(data []byte) error {
	end := c.offset + len(c.items)*c.slotSize
	if end > len(data) {
		return fmt.Errorf("%w: %s ends at 0x%X beyond image of %d bytes", romerrors.ErrInvalidSize, c.name, end, len(data))
	}
	for i, item := range c.items {
		copy(data[c.offset+i*c.slotSize:], item.raw)
	}
	return nil
}
