package mwalib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

// FitsSource is the narrow boundary spec.md §6.1 specifies for the FITS I/O
// primitives this module needs: open a file, enumerate HDUs, read typed
// scalar and long-string (CONTINUE-convention) header keys, read table
// cells by column name and row, and read image HDUs into a float buffer.
// Everything above this interface is pure Go with no FITS-library
// dependency; the concrete implementation below is the only file that
// imports astrogo/fitsio.
type FitsSource interface {
	Close() error
	Path() string
	NumHDUs() int

	HeaderString(hdu int, key string) (string, bool, error)
	HeaderInt(hdu int, key string) (int64, bool, error)
	HeaderFloat(hdu int, key string) (float64, bool, error)
	// HeaderLongString resolves the FITS CONTINUE convention: a string
	// header value split across multiple 68-character card images.
	HeaderLongString(hdu int, key string) (string, bool, error)

	TableNumRows(hdu int) (int, error)
	TableCellString(hdu int, col string, row int) (string, error)
	TableCellFloat(hdu int, col string, row int) (float64, error)
	// TableCellFloatArray reads a fixed-length-per-row array cell (e.g. a
	// per-coarse-channel digital-gain column).
	TableCellFloatArray(hdu int, col string, row int) ([]float64, error)

	// ImageShape returns the NAXISn dimensions of an image HDU, slowest
	// axis first (matching spec.md's [fine_chan][visibility] convention).
	ImageShape(hdu int) ([]int, error)
	ImageFloat32(hdu int) ([]float32, error)
}

// fitsioSource implements FitsSource using github.com/astrogo/fitsio, the
// standard pure-Go FITS library. This is the module's one out-of-pack
// ecosystem dependency (see DESIGN.md) — no repo in the retrieval pack
// touches FITS, so there is nothing to ground this adapter on beyond
// spec.md §6.1's own description of the boundary it must present.
type fitsioSource struct {
	path   string
	stream Stream
	file   *fitsio.File
}

// OpenFitsFile opens path (via OpenSource, so it may be any TileDB-VFS URI)
// as a FITS file and returns the FitsSource boundary.
func OpenFitsFile(path string, configURI string) (FitsSource, error) {
	stream, err := OpenSource(path, configURI, false)
	if err != nil {
		return nil, &FitsError{File: path, Op: "open", Err: err}
	}

	f, err := fitsio.Open(stream)
	if err != nil {
		stream.Close()
		return nil, &FitsError{File: path, Op: "open", Err: err}
	}

	return &fitsioSource{path: path, stream: stream, file: f}, nil
}

func (s *fitsioSource) Path() string { return s.path }

func (s *fitsioSource) Close() error {
	ferr := s.file.Close()
	serr := s.stream.Close()
	if ferr != nil {
		return ferr
	}
	return serr
}

func (s *fitsioSource) NumHDUs() int { return len(s.file.HDUs()) }

func (s *fitsioSource) hdu(i int) (fitsio.HDU, error) {
	hdus := s.file.HDUs()
	if i < 0 || i >= len(hdus) {
		return nil, &FitsError{File: s.path, HDU: i, Op: "hdu", Err: fmt.Errorf("hdu index out of range (have %d)", len(hdus))}
	}
	return hdus[i], nil
}

func (s *fitsioSource) card(hdu int, key string) (*fitsio.Card, bool, error) {
	h, err := s.hdu(hdu)
	if err != nil {
		return nil, false, err
	}
	c := h.Header().Get(key)
	if c == nil {
		return nil, false, nil
	}
	return c, true, nil
}

func (s *fitsioSource) HeaderString(hdu int, key string) (string, bool, error) {
	c, ok, err := s.card(hdu, key)
	if err != nil || !ok {
		return "", ok, err
	}
	v, conv := c.Value.(string)
	if !conv {
		return fmt.Sprint(c.Value), true, nil
	}
	return v, true, nil
}

func (s *fitsioSource) HeaderInt(hdu int, key string) (int64, bool, error) {
	c, ok, err := s.card(hdu, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	switch v := c.Value.(type) {
	case int64:
		return v, true, nil
	case int:
		return int64(v), true, nil
	case float64:
		return int64(v), true, nil
	case string:
		n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if perr != nil {
			return 0, true, &FitsError{File: s.path, HDU: hdu, Op: "header-int:" + key, Err: perr}
		}
		return n, true, nil
	default:
		return 0, true, &FitsError{File: s.path, HDU: hdu, Op: "header-int:" + key, Err: fmt.Errorf("unexpected value type %T", v)}
	}
}

func (s *fitsioSource) HeaderFloat(hdu int, key string) (float64, bool, error) {
	c, ok, err := s.card(hdu, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	switch v := c.Value.(type) {
	case float64:
		return v, true, nil
	case int64:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case string:
		f, perr := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if perr != nil {
			return 0, true, &FitsError{File: s.path, HDU: hdu, Op: "header-float:" + key, Err: perr}
		}
		return f, true, nil
	default:
		return 0, true, &FitsError{File: s.path, HDU: hdu, Op: "header-float:" + key, Err: fmt.Errorf("unexpected value type %T", v)}
	}
}

// HeaderLongString resolves the CONTINUE convention. astrogo/fitsio joins
// CONTINUE-extended string cards into a single logical value automatically;
// this wrapper additionally removes every "&" continuation marker and every
// single-quote character some metafits writers leave behind (spec.md §4.2).
func (s *fitsioSource) HeaderLongString(hdu int, key string) (string, bool, error) {
	raw, ok, err := s.HeaderString(hdu, key)
	if err != nil || !ok {
		return "", ok, err
	}
	raw = strings.ReplaceAll(raw, "&", "")
	raw = strings.ReplaceAll(raw, "'", "")
	return raw, true, nil
}

func (s *fitsioSource) table(hdu int) (*fitsio.Table, error) {
	h, err := s.hdu(hdu)
	if err != nil {
		return nil, err
	}
	t, ok := h.(*fitsio.Table)
	if !ok {
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "table", Err: fmt.Errorf("hdu is not a table")}
	}
	return t, nil
}

func (s *fitsioSource) TableNumRows(hdu int) (int, error) {
	t, err := s.table(hdu)
	if err != nil {
		return 0, err
	}
	return int(t.NumRows()), nil
}

func (s *fitsioSource) TableCellString(hdu int, col string, row int) (string, error) {
	cell, err := readTableRow(s, hdu, col, row)
	if err != nil {
		return "", err
	}
	switch v := cell.(type) {
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (s *fitsioSource) TableCellFloat(hdu int, col string, row int) (float64, error) {
	cell, err := readTableRow(s, hdu, col, row)
	if err != nil {
		return 0, err
	}
	switch v := cell.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, &FitsError{File: s.path, HDU: hdu, Op: "table-cell:" + col, Err: fmt.Errorf("unexpected value type %T", v)}
	}
}

func (s *fitsioSource) TableCellFloatArray(hdu int, col string, row int) ([]float64, error) {
	cell, err := readTableRow(s, hdu, col, row)
	if err != nil {
		return nil, err
	}
	switch v := cell.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, nil
	default:
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "table-cell:" + col, Err: fmt.Errorf("unexpected value type %T", v)}
	}
}

// readTableRow reads the named column of the given (1-based, per FITS
// convention) row, returning the decoded cell as its natural Go type. The
// fitsio row cursor decodes a whole row at a time into a map keyed by
// column name; single-cell reads are a thin wrapper over that so repeated
// TableCell* calls for the same row still amortise via the table's own
// internal buffering rather than re-parsing the binary table each time.
func readTableRow(s *fitsioSource, hdu int, col string, row int) (interface{}, error) {
	t, err := s.table(hdu)
	if err != nil {
		return nil, err
	}
	rows := t.Range(int64(row-1), int64(row))
	defer rows.Close()
	if !rows.Next() {
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "table-cell:" + col, Err: fmt.Errorf("row %d not found", row)}
	}
	values := make(map[string]interface{}, len(t.Cols()))
	if err := rows.Scan(&values); err != nil {
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "table-cell:" + col, Err: err}
	}
	v, ok := values[col]
	if !ok {
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "table-cell:" + col, Err: fmt.Errorf("column %q not found", col)}
	}
	return v, nil
}

func (s *fitsioSource) ImageShape(hdu int) ([]int, error) {
	h, err := s.hdu(hdu)
	if err != nil {
		return nil, err
	}
	img, ok := h.(*fitsio.Image)
	if !ok {
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "image-shape", Err: fmt.Errorf("hdu is not an image")}
	}
	return img.Axes(), nil
}

func (s *fitsioSource) ImageFloat32(hdu int) ([]float32, error) {
	h, err := s.hdu(hdu)
	if err != nil {
		return nil, err
	}
	img, ok := h.(*fitsio.Image)
	if !ok {
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "image-read", Err: fmt.Errorf("hdu is not an image")}
	}
	axes := img.Axes()
	n := 1
	for _, a := range axes {
		n *= a
	}
	buf := make([]float32, n)
	if err := img.Read(&buf); err != nil {
		return nil, &FitsError{File: s.path, HDU: hdu, Op: "image-read", Err: err}
	}
	return buf, nil
}
