package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

const bufSize = 4 << 20 // 4 MiB

var ErrRecordNotFound = errors.New("fasta record not found")

// Record is one FASTA entry (whole chromosome or contig).
type Record struct {
	ID  string
	Seq []byte // upper-case, no newlines; owned by the receiver
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Open returns a reader over path ("-" is stdin). Gzip input is detected by
// its magic bytes and decompressed transparently.
func Open(path string) (io.ReadCloser, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
	}
	br := bufio.NewReaderSize(f, bufSize)
	var closers []io.Closer
	if f != os.Stdin {
		closers = append(closers, f)
	}
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return readCloser{Reader: zr, closers: append([]io.Closer{zr}, closers...)}, nil
	}
	return readCloser{Reader: br, closers: closers}, nil
}

// Stream reads `path` and sends each record down the chan.
// It closes the channel when done or on first error (returned).
func Stream(path string, out chan<- Record) error {
	rc, err := Open(path)
	if err != nil {
		close(out)
		return err
	}
	defer rc.Close()
	return Scan(rc, out)
}

// Scan is Stream over an already open reader.
func Scan(r io.Reader, out chan<- Record) error {
	defer close(out)
	return each(r, func(rec Record) bool {
		out <- rec
		return true
	})
}

// Find returns the first record whose ID is id; an empty id picks the first
// record of the input.
func Find(r io.Reader, id string) (Record, error) {
	var (
		found Record
		ok    bool
	)
	err := each(r, func(rec Record) bool {
		if id == "" || rec.ID == id {
			found, ok = rec, true
			return false
		}
		return true
	})
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	return found, nil
}

// each parses records and hands them to fn until fn returns false.
// Lines starting with ';' are comments.
func each(r io.Reader, fn func(Record) bool) error {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, bufSize)
	}
	var (
		id     string
		seq    []byte
		inside bool
		cont   bool // the previous chunk ended mid-line
		skip   bool // the current line is a header or comment
	)
	flush := func() bool {
		if !inside {
			return true
		}
		return fn(Record{ID: id, Seq: bytes.ToUpper(seq)})
	}
	for {
		line, err := br.ReadSlice('\n')
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return err
		}
		line = bytes.TrimRight(line, "\r\n")
		switch {
		case cont && skip:
			// tail of a header or comment longer than the buffer
		case cont:
			if inside {
				seq = append(seq, line...)
			}
		case len(line) > 0 && line[0] == '>':
			if !flush() {
				return nil
			}
			id, seq, inside, skip = headerID(line[1:]), nil, true, true
		case len(line) > 0 && line[0] == ';':
			skip = true
		default:
			skip = false
			if inside {
				seq = append(seq, line...)
			}
		}
		cont = err == bufio.ErrBufferFull
		if err == io.EOF {
			flush()
			return nil
		}
	}
}

// headerID grabs up-to-first-space.
func headerID(h []byte) string {
	if f := bytes.Fields(h); len(f) > 0 {
		return string(f[0])
	}
	return ""
}
