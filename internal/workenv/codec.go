package workenv

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sort"

	"github.com/dsnet/compress/bzip2"
)

// Codec names
const (
	CodecNone  = "none"
	CodecGzip  = "gzip"
	CodecBzip2 = "bzip2"
)

// Codec transforms backup content on its way to and from disk
type Codec interface {
	// Name returns the name stored in backup markers
	Name() string

	// Ext returns the extension appended to backup file names
	Ext() string

	// Encode transforms image data for storage
	Encode(input []byte) ([]byte, error)

	// Decode reverses Encode
	Decode(input []byte) ([]byte, error)
}

var codecs = map[string]Codec{
	CodecNone:  noneCodec{},
	CodecGzip:  gzipCodec{},
	CodecBzip2: bzip2Codec{},
}

// GetCodec retrieves a codec by name. An empty name selects CodecNone.
func GetCodec(name string) (Codec, error) {
	if name == "" {
		name = CodecNone
	}
	codec, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown backup codec %q (known: %v)", name, CodecNames())
	}
	return codec, nil
}

// CodecNames lists the registered codecs
func CodecNames() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type noneCodec struct{}

func (noneCodec) Name() string                        { return CodecNone }
func (noneCodec) Ext() string                         { return "" }
func (noneCodec) Encode(input []byte) ([]byte, error) { return input, nil }
func (noneCodec) Decode(input []byte) ([]byte, error) { return input, nil }

type gzipCodec struct{}

func (gzipCodec) Name() string { return CodecGzip }
func (gzipCodec) Ext() string  { return ".gz" }

func (gzipCodec) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer

	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(input); err != nil {
		gw.Close()
		return nil, fmt.Errorf("writing gzip data: %w", err)
	}

	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

func (gzipCodec) Decode(input []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gr.Close()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("reading gzip data: %w", err)
	}

	return data, nil
}

type bzip2Codec struct{}

func (bzip2Codec) Name() string { return CodecBzip2 }
func (bzip2Codec) Ext() string  { return ".bz2" }

func (bzip2Codec) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer

	bw, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 9})
	if err != nil {
		return nil, fmt.Errorf("creating bzip2 writer: %w", err)
	}

	if _, err := bw.Write(input); err != nil {
		bw.Close()
		return nil, fmt.Errorf("writing bzip2 data: %w", err)
	}

	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("closing bzip2 writer: %w", err)
	}

	return buf.Bytes(), nil
}

func (bzip2Codec) Decode(input []byte) ([]byte, error) {
	br, err := bzip2.NewReader(bytes.NewReader(input), &bzip2.ReaderConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating bzip2 reader: %w", err)
	}
	defer br.Close()

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading bzip2 data: %w", err)
	}

	return data, nil
}
