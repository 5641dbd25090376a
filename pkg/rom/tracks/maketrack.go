package tracks

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
)

// SMKC keys
const (
	KeyStartX          = "SP_STX"
	KeyStartY          = "SP_STY"
	KeyStartW          = "SP_STW"
	KeyLapLineX        = "SP_LSPX"
	KeyLapLineY        = "SP_LSPY"
	KeyLapLineW        = "SP_LSPW"
	KeyBattleP1X       = "SP_STP1X"
	KeyBattleP1Y       = "SP_STP1Y"
	KeyBattleP2X       = "SP_STP2X"
	KeyBattleP2Y       = "SP_STP2Y"
	KeyTheme           = "EE_THEME"
	KeyItemProbability = "EE_ITEMPROBA"
	KeyMap             = "MAP"
	KeyOverlay         = "OVERLAY"
	KeyAI              = "AI"
	KeyObjects         = "GPEX"
	KeyObjectAreas     = "AREA_BORDER"
)

// MakeTrack is the content of an SMKC track file: an ordered list of
// "#KEY value" lines, where a key without value may be followed by
// "#HEX" data lines. Keys this package does not use are kept in place.
type MakeTrack struct {
	fields []*makeField
	index  map[string]*makeField
}

type makeField struct {
	key   string
	value string
	lines []string
}

// NewMakeTrack creates an empty MakeTrack
func NewMakeTrack() *MakeTrack {
	return &MakeTrack{index: make(map[string]*makeField)}
}

// ParseMakeTrack reads SMKC content. Lines not starting with '#' are ignored.
func ParseMakeTrack(r io.Reader) (*MakeTrack, error) {
	mt := NewMakeTrack()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var block *makeField
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		body := line[1:]

		if block != nil && isHexLine(body) {
			block.lines = append(block.lines, body)
			continue
		}

		key, value, _ := strings.Cut(body, " ")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: line %d has no key", romerrors.ErrInvalidFormat, lineNumber)
		}
		f := mt.field(key)
		f.value = strings.TrimSpace(value)
		f.lines = nil
		block = nil
		if f.value == "" {
			block = f
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}
	return mt, nil
}

func isHexLine(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

func (mt *MakeTrack) field(key string) *makeField {
	if f, ok := mt.index[key]; ok {
		return f
	}
	f := &makeField{key: key}
	mt.fields = append(mt.fields, f)
	mt.index[key] = f
	return f
}

// WriteTo writes the content in SMKC form
func (mt *MakeTrack) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, f := range mt.fields {
		line := "#" + f.key
		if f.value != "" {
			line += " " + f.value
		}
		n, err := bw.WriteString(line + "\r\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
		for _, data := range f.lines {
			n, err := bw.WriteString("#" + data + "\r\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, bw.Flush()
}

// Keys returns the keys in file order
func (mt *MakeTrack) Keys() []string {
	keys := make([]string, len(mt.fields))
	for i, f := range mt.fields {
		keys[i] = f.key
	}
	return keys
}

// Has reports whether key is present
func (mt *MakeTrack) Has(key string) bool {
	_, ok := mt.index[key]
	return ok
}

// Value returns the raw value of a key
func (mt *MakeTrack) Value(key string) (string, bool) {
	f, ok := mt.index[key]
	if !ok {
		return "", false
	}
	return f.value, true
}

// SetValue stores a raw value
func (mt *MakeTrack) SetValue(key, value string) {
	f := mt.field(key)
	f.value = value
	f.lines = nil
}

// Int returns a decimal or 0x-prefixed value
func (mt *MakeTrack) Int(key string) (int, error) {
	f, ok := mt.index[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing #%s", romerrors.ErrInvalidFormat, key)
	}
	v, err := strconv.ParseInt(f.value, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: #%s %q is not a number", romerrors.ErrInvalidFormat, key, f.value)
	}
	return int(v), nil
}

// SetInt stores a decimal value
func (mt *MakeTrack) SetInt(key string, v int) {
	mt.SetValue(key, strconv.Itoa(v))
}

// Data returns the bytes of a data block
func (mt *MakeTrack) Data(key string) ([]byte, error) {
	f, ok := mt.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing #%s", romerrors.ErrInvalidFormat, key)
	}
	data, err := hex.DecodeString(strings.Join(f.lines, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: #%s: %v", romerrors.ErrInvalidFormat, key, err)
	}
	return data, nil
}

// SetData stores a data block, lineWidth bytes per line
func (mt *MakeTrack) SetData(key string, data []byte, lineWidth int) {
	f := mt.field(key)
	f.value = ""
	f.lines = nil
	if lineWidth <= 0 {
		lineWidth = len(data)
	}
	for start := 0; start < len(data); start += lineWidth {
		end := min(start+lineWidth, len(data))
		f.lines = append(f.lines, strings.ToUpper(hex.EncodeToString(data[start:end])))
	}
}
