package pdf

import (
	"bytes"
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// Resource categories of a resource dictionary.
const (
	CategoryFont    = "Font"
	CategoryXObject = "XObject"
)

// ResourceNames returns the names already bound in one category of a
// resource dictionary.
func ResourceNames(resources pdflib.Value, category string) map[string]bool {
	names := make(map[string]bool)
	if resources.IsNull() {
		return names
	}
	dict := resources.Key(category)
	if dict.Kind() != pdflib.Dict {
		return names
	}
	for _, name := range dict.Keys() {
		names[name] = true
	}
	return names
}

// UniqueName returns prefix followed by the lowest positive number that is
// not in taken.
func UniqueName(prefix string, taken map[string]bool) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if !taken[name] {
			return name
		}
	}
}

// WriteMergedResources writes resources as a direct dictionary with name
// bound to ref in the given category. Existing entries are kept; objects
// they point to are referenced, not copied.
func WriteMergedResources(buf *bytes.Buffer, resources pdflib.Value, category, name string, ref Ref) error {
	owner := RefOf(resources)

	buf.WriteString("<<")
	if resources.Kind() == pdflib.Dict {
		if err := WriteDictEntries(buf, resources, owner, category); err != nil {
			return err
		}
	}

	buf.WriteString(" ")
	WriteName(buf, category)
	buf.WriteString(" <<")
	if existing := resources.Key(category); existing.Kind() == pdflib.Dict {
		if err := WriteDictEntries(buf, existing, RefOf(existing), name); err != nil {
			return err
		}
	}
	buf.WriteString(" ")
	WriteName(buf, name)
	buf.WriteString(" ")
	buf.WriteString(ref.String())
	buf.WriteString(" >>")

	buf.WriteString(" >>")
	return nil
}

// FontInfo describes a font resource bound on a page.
type FontInfo struct {
	Name     string // resource name, e.g. F1
	BaseFont string
	Ref      Ref
}

// PageFonts lists the fonts bound in a page's effective resources.
func PageFonts(page *Page) []FontInfo {
	fonts := page.Resources.Key(CategoryFont)
	if fonts.Kind() != pdflib.Dict {
		return nil
	}

	var found []FontInfo
	for _, name := range fonts.Keys() {
		f := fonts.Key(name)
		info := FontInfo{Name: name, Ref: RefOf(f)}
		if base := f.Key("BaseFont"); base.Kind() == pdflib.Name {
			info.BaseFont = base.Name()
		}
		found = append(found, info)
	}
	return found
}
