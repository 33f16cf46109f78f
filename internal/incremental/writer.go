// Package incremental appends an incremental update section to an existing
// PDF file. New and replaced objects are written after the original bytes,
// followed by a cross-reference section of the same kind as the one found
// in the original file (classic table or cross-reference stream) and a
// trailer that chains back to the previous section through /Prev.
package incremental

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"

	"github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"
)

// XrefKind identifies how the cross-reference section of a file is stored.
type XrefKind int

const (
	// XrefTable is the classic "xref" keyword table.
	XrefTable XrefKind = iota
	// XrefStream is a PDF 1.5 cross-reference stream object.
	XrefStream
)

func (k XrefKind) String() string {
	if k == XrefStream {
		return "stream"
	}
	return "table"
}

type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// Writer collects objects for one incremental update.
// A Writer is not safe for concurrent use.
type Writer struct {
	rdr        *pdf.Reader
	out        *filebuffer.Buffer
	prev       int64
	kind       XrefKind
	size       uint32
	nextID     uint32
	entries    []xrefEntry
	updated    map[uint32]bool
	compress   int
	finished   bool
	finalBytes []byte
}

// New prepares an update of input. The reader must have been opened on the
// same bytes. input is copied; the caller's slice is never written to.
func New(input []byte, rdr *pdf.Reader) (*Writer, error) {
	if rdr == nil {
		return nil, errors.New("no reader available")
	}

	info := rdr.XrefInformation
	prev := info.StartPos
	if prev <= 0 || prev >= int64(len(input)) {
		return nil, fmt.Errorf("xref offset %d outside of file", prev)
	}

	kind, err := DetectKind(rdr)
	if err != nil {
		return nil, err
	}

	size := uint32(rdr.Trailer().Key("Size").Int64())
	if size == 0 {
		size = uint32(info.ItemCount)
	}
	if size == 0 {
		return nil, errors.New("trailer has no /Size")
	}

	w := &Writer{
		rdr:      rdr,
		out:      filebuffer.New([]byte{}),
		prev:     prev,
		kind:     kind,
		size:     size,
		nextID:   size,
		updated:  make(map[uint32]bool),
		compress: zlib.DefaultCompression,
	}

	// Copy old file into new buffer.
	if _, err := w.out.Write(input); err != nil {
		return nil, err
	}

	// File always needs an empty line after %%EOF.
	if len(input) > 0 && input[len(input)-1] != '\n' {
		if _, err := w.out.Write([]byte("\n")); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Kind reports the cross-reference kind the update will be written with.
func (w *Writer) Kind() XrefKind {
	return w.kind
}

// SetCompression configures the zlib level used by AddStream.
func (w *Writer) SetCompression(level int) {
	w.compress = level
}

// AddObject writes body as a new indirect object and returns its number.
func (w *Writer) AddObject(body []byte) (uint32, error) {
	if w.finished {
		return 0, errors.New("update already finished")
	}
	id := w.nextID
	w.nextID++
	if err := w.writeObject(id, 0, body); err != nil {
		return 0, fmt.Errorf("failed to add object %d: %w", id, err)
	}
	return id, nil
}

// UpdateObject writes a new revision of an existing object.
func (w *Writer) UpdateObject(id uint32, gen uint16, body []byte) error {
	if w.finished {
		return errors.New("update already finished")
	}
	if id == 0 || id >= w.size {
		return fmt.Errorf("object %d is not part of the original document", id)
	}
	if w.updated[id] {
		return fmt.Errorf("object %d updated twice", id)
	}
	w.updated[id] = true
	if err := w.writeObject(id, gen, body); err != nil {
		return fmt.Errorf("failed to update object %d: %w", id, err)
	}
	return nil
}

// AddStream writes a stream object. dict holds the dictionary entries
// without the surrounding << >>, /Length and /Filter. When compress is set
// and the configured level is not zlib.NoCompression the data is
// FlateDecode encoded.
func (w *Writer) AddStream(dict string, data []byte, compress bool) (uint32, error) {
	filter := ""
	if compress && w.compress != zlib.NoCompression {
		var b bytes.Buffer
		zw, err := zlib.NewWriterLevel(&b, w.compress)
		if err != nil {
			return 0, err
		}
		if _, err := zw.Write(data); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
		data = b.Bytes()
		filter = " /Filter /FlateDecode"
	}

	var buf bytes.Buffer
	buf.WriteString("<<")
	if dict != "" {
		buf.WriteString(" ")
		buf.WriteString(dict)
	}
	fmt.Fprintf(&buf, "%s /Length %d >>\nstream\n", filter, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")

	return w.AddObject(buf.Bytes())
}

func (w *Writer) writeObject(id uint32, gen uint16, body []byte) error {
	offset := int64(w.out.Buff.Len())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", id, gen)
	buf.Write(body)
	buf.WriteString("\nendobj\n")

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return err
	}

	w.entries = append(w.entries, xrefEntry{ID: id, Gen: gen, Offset: offset})
	return nil
}

// Bytes finishes the update and returns the complete new file.
// Calling Bytes again returns the same result.
func (w *Writer) Bytes() ([]byte, error) {
	if w.finished {
		return w.finalBytes, nil
	}
	if len(w.entries) == 0 {
		return nil, errors.New("no objects to write")
	}

	var err error
	switch w.kind {
	case XrefTable:
		err = w.writeXrefTable()
	case XrefStream:
		err = w.writeXrefStream()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s xref: %w", w.kind, err)
	}

	w.finished = true
	w.finalBytes = w.out.Buff.Bytes()
	return w.finalBytes, nil
}

// newSize is the /Size of the updated file.
func (w *Writer) newSize() uint32 {
	size := w.size
	if w.nextID > size {
		size = w.nextID
	}
	return size
}

// DetectKind reports how the last cross-reference section read by rdr is
// stored.
func DetectKind(rdr *pdf.Reader) (XrefKind, error) {
	switch rdr.XrefInformation.Type {
	case "table":
		return XrefTable, nil
	case "stream":
		return XrefStream, nil
	}
	return 0, fmt.Errorf("unknown xref type %q", rdr.XrefInformation.Type)
}

// Revisions counts the revisions of a file: the original plus one per
// incremental update, each terminated by an end-of-file marker.
func Revisions(data []byte) int {
	return bytes.Count(data, []byte("%%EOF"))
}
