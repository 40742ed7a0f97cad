package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encoder writes sections one after another. Close flushes buffered output
// but does not close the underlying writer.
type Encoder interface {
	Encode(s Section) error
	Close() error
}

func NewEncoder(format string, w io.Writer) (Encoder, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return &textEncoder{bw: bufio.NewWriter(w)}, nil
	case FormatJSON:
		return &jsonEncoder{enc: json.NewEncoder(w)}, nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlEncoder{enc: enc}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// textEncoder reproduces the benchmark layout: "KMER PCT" lines and a blank
// line per frame, "COUNT\tKMER" per query.
type textEncoder struct {
	bw *bufio.Writer
}

func (e *textEncoder) Encode(s Section) error {
	switch {
	case s.Frame != nil:
		for _, f := range s.Frame.Frequencies {
			if _, err := fmt.Fprintf(e.bw, "%s %.3f\n", f.Kmer, f.Percent); err != nil {
				return err
			}
		}
		return e.bw.WriteByte('\n')
	case s.Query != nil:
		_, err := fmt.Fprintf(e.bw, "%d\t%s\n", s.Query.Count, s.Query.Kmer)
		return err
	}
	return nil
}

func (e *textEncoder) Close() error { return e.bw.Flush() }

// jsonEncoder writes one JSON object per line.
type jsonEncoder struct {
	enc *json.Encoder
}

func (e *jsonEncoder) Encode(s Section) error { return e.enc.Encode(s) }
func (e *jsonEncoder) Close() error           { return nil }

// yamlEncoder writes one YAML document per section.
type yamlEncoder struct {
	enc *yaml.Encoder
}

func (e *yamlEncoder) Encode(s Section) error { return e.enc.Encode(s) }
func (e *yamlEncoder) Close() error           { return e.enc.Close() }
