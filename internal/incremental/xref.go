package incremental

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"golang.org/x/crypto/blake2b"
)

const (
	xrefStreamOffsetWidth = 4
	idLength              = 16
)

// subsection is a run of consecutive object numbers in a cross-reference section.
type subsection struct {
	start   uint32
	entries []xrefEntry
}

func (w *Writer) subsections(entries []xrefEntry) []subsection {
	sorted := make([]xrefEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []subsection
	for _, e := range sorted {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.start+uint32(len(last.entries)) == e.ID {
				last.entries = append(last.entries, e)
				continue
			}
		}
		out = append(out, subsection{start: e.ID, entries: []xrefEntry{e}})
	}
	return out
}

// writeXrefTable writes a classic cross-reference table and trailer.
func (w *Writer) writeXrefTable() error {
	id, err := w.documentID()
	if err != nil {
		return err
	}

	xrefStart := int64(w.out.Buff.Len())

	var buf bytes.Buffer
	buf.WriteString("xref\n")
	for _, s := range w.subsections(w.entries) {
		fmt.Fprintf(&buf, "%d %d\n", s.start, len(s.entries))
		for _, e := range s.entries {
			fmt.Fprintf(&buf, "%010d %05d n\r\n", e.Offset, e.Gen)
		}
	}

	buf.WriteString("trailer\n<<")
	w.writeTrailerEntries(&buf, id)
	buf.WriteString(" >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefStart)

	_, err = w.out.Write(buf.Bytes())
	return err
}

// writeXrefStream writes a cross-reference stream object. The stream
// object lists itself.
func (w *Writer) writeXrefStream() error {
	id, err := w.documentID()
	if err != nil {
		return err
	}

	selfID := w.nextID
	w.nextID++
	xrefStart := int64(w.out.Buff.Len())

	entries := append(w.entries, xrefEntry{ID: selfID, Offset: xrefStart})

	var rows bytes.Buffer
	var index bytes.Buffer
	for _, s := range w.subsections(entries) {
		fmt.Fprintf(&index, " %d %d", s.start, len(s.entries))
		for _, e := range s.entries {
			if e.Offset > math.MaxUint32 {
				return fmt.Errorf("offset %d of object %d does not fit the xref stream", e.Offset, e.ID)
			}
			if e.Gen > math.MaxUint8 {
				return fmt.Errorf("generation %d of object %d does not fit the xref stream", e.Gen, e.ID)
			}
			writeXrefStreamLine(&rows, 1, uint32(e.Offset), uint8(e.Gen))
		}
	}

	data, err := deflate(rows.Bytes())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d 0 obj\n", selfID)
	buf.WriteString("<< /Type /XRef")
	fmt.Fprintf(&buf, " /W [1 %d 1]", xrefStreamOffsetWidth)
	fmt.Fprintf(&buf, " /Index [%s ]", index.String())
	w.writeTrailerEntries(&buf, id)
	fmt.Fprintf(&buf, " /Filter /FlateDecode /Length %d >>\nstream\n", len(data))
	buf.Write(data)
	buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefStart)

	_, err = w.out.Write(buf.Bytes())
	return err
}

// writeXrefStreamLine writes a single line in the xref stream.
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset uint32, gen byte) {
	b.WriteByte(xreftype)

	offsetBytes := make([]byte, xrefStreamOffsetWidth)
	binary.BigEndian.PutUint32(offsetBytes, offset)
	b.Write(offsetBytes)

	b.WriteByte(gen)
}

func (w *Writer) writeTrailerEntries(buf *bytes.Buffer, id [2][]byte) {
	trailer := w.rdr.Trailer()
	trailerPtr := trailer.GetPtr()

	fmt.Fprintf(buf, " /Size %d", w.newSize())

	root := trailer.Key("Root").GetPtr()
	fmt.Fprintf(buf, " /Root %d %d R", root.GetID(), root.GetGen())

	info := trailer.Key("Info")
	if infoPtr := info.GetPtr(); !info.IsNull() && infoPtr.GetID() != 0 && infoPtr != trailerPtr {
		fmt.Fprintf(buf, " /Info %d %d R", infoPtr.GetID(), infoPtr.GetGen())
	}

	fmt.Fprintf(buf, " /Prev %d", w.prev)
	fmt.Fprintf(buf, " /ID [<%s> <%s>]", hex.EncodeToString(id[0]), hex.EncodeToString(id[1]))
}

// documentID returns the file identifier pair for the update. The first
// element is kept from the original file; the second is a digest of the
// updated body so identical updates produce identical identifiers.
func (w *Writer) documentID() ([2][]byte, error) {
	body := w.out.Buff.Bytes()

	current, err := digest(body)
	if err != nil {
		return [2][]byte{}, err
	}

	var first []byte
	if orig := w.rdr.Trailer().Key("ID"); orig.Len() > 0 {
		first = []byte(orig.Index(0).RawString())
	}
	if len(first) == 0 {
		first = current
	}

	return [2][]byte{first, current}, nil
}

func digest(data []byte) ([]byte, error) {
	h, err := blake2b.New(idLength, nil)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// deflate applies FlateDecode without prediction.
func deflate(data []byte) ([]byte, error) {
	var b bytes.Buffer
	zw := zlib.NewWriter(&b)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
