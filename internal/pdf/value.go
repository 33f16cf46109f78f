// Package pdf contains low-level helpers on top of github.com/digitorus/pdf
// for locating pages and re-serializing objects read from an existing file.
package pdf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	pdflib "github.com/digitorus/pdf"
)

// Ref identifies an indirect object.
type Ref struct {
	ID  uint32
	Gen uint16
}

// String formats the reference as it appears in a PDF file.
func (r Ref) String() string {
	return fmt.Sprintf("%d %d R", r.ID, r.Gen)
}

// IsZero reports whether r does not point to an object.
func (r Ref) IsZero() bool {
	return r.ID == 0
}

// RefOf returns the indirect object v was resolved from. Direct values
// report the object that contains them.
func RefOf(v pdflib.Value) Ref {
	ptr := v.GetPtr()
	return Ref{ID: uint32(ptr.GetID()), Gen: uint16(ptr.GetGen())}
}

// Limits of WriteValue. A value that was resolved through a reference back
// to its owner is indistinguishable from a direct child, so a dictionary that
// refers to itself would otherwise be inlined forever.
const (
	maxNesting = 32
	maxValues  = 1 << 20
)

// ErrNestingTooDeep is returned when a value is nested deeper than any sane
// object, which happens when a direct value refers back to its owner.
var ErrNestingTooDeep = errors.New("object nesting too deep")

// valueWriter carries the state of one serialization.
type valueWriter struct {
	buf    *bytes.Buffer
	owner  Ref
	values int
}

// WriteValue serializes v. A value that was resolved through an indirect
// reference other than owner is written as a reference, everything else is
// written inline.
func WriteValue(buf *bytes.Buffer, v pdflib.Value, owner Ref) error {
	w := &valueWriter{buf: buf, owner: owner}
	return w.value(v, 0)
}

// WriteDictEntries writes every entry of dict except the skipped keys, each
// prefixed by a space.
func WriteDictEntries(buf *bytes.Buffer, dict pdflib.Value, owner Ref, skip ...string) error {
	w := &valueWriter{buf: buf, owner: owner}
	return w.entries(dict, 0, skip)
}

func (w *valueWriter) value(v pdflib.Value, depth int) error {
	if ref := RefOf(v); !ref.IsZero() && ref != w.owner {
		w.buf.WriteString(ref.String())
		return nil
	}

	w.values++
	if depth > maxNesting || w.values > maxValues {
		return fmt.Errorf("%w in object %s", ErrNestingTooDeep, w.owner)
	}

	switch v.Kind() {
	case pdflib.Bool:
		w.buf.WriteString(strconv.FormatBool(v.Bool()))
	case pdflib.Integer:
		w.buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdflib.Real:
		w.buf.WriteString(FormatNumber(v.Float64()))
	case pdflib.String:
		WriteString(w.buf, v.RawString())
	case pdflib.Name:
		WriteName(w.buf, v.Name())
	case pdflib.Array:
		w.buf.WriteString("[")
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				w.buf.WriteString(" ")
			}
			if err := w.value(v.Index(i), depth+1); err != nil {
				return err
			}
		}
		w.buf.WriteString("]")
	case pdflib.Dict:
		w.buf.WriteString("<<")
		if err := w.entries(v, depth+1, nil); err != nil {
			return err
		}
		w.buf.WriteString(" >>")
	default:
		// Null, and streams that are not behind a reference, which cannot
		// be expressed inline.
		w.buf.WriteString("null")
	}
	return nil
}

func (w *valueWriter) entries(dict pdflib.Value, depth int, skip []string) error {
	for _, key := range dict.Keys() {
		if slices.Contains(skip, key) {
			continue
		}
		w.buf.WriteString(" ")
		WriteName(w.buf, key)
		w.buf.WriteString(" ")
		if err := w.value(dict.Key(key), depth); err != nil {
			return err
		}
	}
	return nil
}

// WriteName writes a name object, escaping delimiters and non-regular
// characters with the #xx notation.
func WriteName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '!' || c > '~' || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

// WriteString writes s as a hexadecimal string object.
func WriteString(buf *bytes.Buffer, s string) {
	buf.WriteByte('<')
	buf.WriteString(hex.EncodeToString([]byte(s)))
	buf.WriteByte('>')
}

// FormatNumber formats f the way PDF expects real numbers: no exponent and
// no trailing zeros.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = trimZeros(s)
	if s == "-0" {
		return "0"
	}
	return s
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
