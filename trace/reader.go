package trace

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedLine is wrapped by every parse failure.
var ErrMalformedLine = errors.New("malformed trace line")

// Reader parses a text branch trace.
//
// Each non-blank line not starting with '#' holds either
//
//	<pc> <outcome>
//
// for a conditional branch, or
//
//	<pc> <target> <outcome> <conditional> <call> <return> <direct>
//
// Numbers are hex with a 0x prefix or decimal; flags are 0 or 1.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: s}
}

// Next returns the next branch. It returns io.EOF after the last one.
func (r *Reader) Next() (Branch, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		b, err := ParseLine(text)
		if err != nil {
			return Branch{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return b, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Branch{}, fmt.Errorf("failed to read trace: %w", err)
	}
	return Branch{}, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// ParseLine parses one trace record.
func ParseLine(text string) (Branch, error) {
	fields := strings.Fields(text)

	switch len(fields) {
	case 2:
		pc, err := parseAddr(fields[0])
		if err != nil {
			return Branch{}, err
		}
		taken, err := parseFlag(fields[1])
		if err != nil {
			return Branch{}, err
		}
		return Branch{PC: pc, Taken: taken, Conditional: true, Direct: true}, nil

	case 7:
		pc, err := parseAddr(fields[0])
		if err != nil {
			return Branch{}, err
		}
		target, err := parseAddr(fields[1])
		if err != nil {
			return Branch{}, err
		}

		var flags [5]bool
		for i := range flags {
			if flags[i], err = parseFlag(fields[2+i]); err != nil {
				return Branch{}, err
			}
		}

		return Branch{
			PC:          pc,
			Target:      target,
			Taken:       flags[0],
			Conditional: flags[1],
			Call:        flags[2],
			Return:      flags[3],
			Direct:      flags[4],
		}, nil

	default:
		return Branch{}, fmt.Errorf("%w: want 2 or 7 fields, got %d", ErrMalformedLine, len(fields))
	}
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad address %q", ErrMalformedLine, s)
	}
	return uint32(v), nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("%w: bad flag %q", ErrMalformedLine, s)
	}
}

// File is an open trace file.
type File struct {
	*Reader
	closers []io.Closer
}

// Open opens a trace file, decompressing .bz2 and .gz files on the fly.
// The path "-" reads standard input.
func Open(path string) (*File, error) {
	if path == "-" {
		return &File{Reader: NewReader(os.Stdin)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}

	tf := &File{closers: []io.Closer{f}}

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".bz2"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip trace: %w", err)
		}
		tf.closers = append([]io.Closer{gz}, tf.closers...)
		r = gz
	}

	tf.Reader = NewReader(r)
	return tf, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	var errs []error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
