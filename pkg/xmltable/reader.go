// Package xmltable turns repeated XML elements into table rows while streaming the document.
package xmltable

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"

	"github.com/askiada/xmletl/pkg/table"
)

// Options selects the record elements and the fields read from each one.
type Options struct {
	// Path selects the record elements.
	Path string
	// Namespaces maps the prefixes used in Path to namespace URIs.
	Namespaces map[string]string
	// Fields switches to element-scan mode: for every record, the first descendant element (or
	// record attribute) with each of these local names becomes a column, in this order.
	// When empty, every attribute and direct child of the record becomes a column.
	Fields []string
	// Names renames the columns of the default mode positionally, once every record is read.
	Names []string
}

type record struct {
	depth  int
	values map[string]string
	order  []string

	captureDepth int
	captureName  string
	text         strings.Builder
}

func (r *record) set(name, value string) {
	if _, ok := r.values[name]; ok {
		return
	}
	r.values[name] = value
	r.order = append(r.order, name)
}

// Read decodes r and returns one row per record element.
func Read(r io.Reader, opts Options) (*table.Table, error) {
	path, err := ParsePath(opts.Path, opts.Namespaces)
	if err != nil {
		return nil, err
	}

	out, err := table.New(opts.Fields...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create table")
	}

	fieldSet := make(map[string]struct{}, len(opts.Fields))
	for _, f := range opts.Fields {
		fieldSet[f] = struct{}{}
	}
	scan := len(fieldSet) > 0

	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		stack []xml.Name
		rec   *record
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "unable to decode xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			if rec == nil {
				if path.Match(stack) {
					rec = &record{depth: len(stack), values: make(map[string]string)}
					for _, attr := range t.Attr {
						if _, ok := fieldSet[attr.Name.Local]; ok || !scan {
							rec.set(attr.Name.Local, attr.Value)
						}
					}
				}

				continue
			}
			if rec.captureDepth > 0 {
				continue
			}

			if scan {
				if _, ok := fieldSet[t.Name.Local]; ok {
					if _, seen := rec.values[t.Name.Local]; !seen {
						rec.captureDepth, rec.captureName = len(stack), t.Name.Local
						rec.text.Reset()
					}
				}
			} else if len(stack) == rec.depth+1 {
				rec.captureDepth, rec.captureName = len(stack), uniqueName(rec.values, t.Name.Local)
				rec.text.Reset()
			}
		case xml.CharData:
			if rec != nil && rec.captureDepth == len(stack) {
				rec.text.Write(t)
			}
		case xml.EndElement:
			if rec != nil {
				if rec.captureDepth == len(stack) {
					rec.set(rec.captureName, strings.TrimSpace(rec.text.String()))
					rec.captureDepth = 0
				}
				if rec.depth == len(stack) {
					if err := appendRecord(out, rec, opts); err != nil {
						return nil, err
					}
					rec = nil
				}
			}
			stack = stack[:len(stack)-1]
		}
	}

	if !scan && len(opts.Names) > 0 {
		if err := rename(out, opts.Names); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func appendRecord(out *table.Table, rec *record, opts Options) error {
	if len(opts.Fields) > 0 {
		row := make([]string, len(opts.Fields))
		for i, f := range opts.Fields {
			row[i] = rec.values[f]
		}

		return errors.Wrap(out.Append(row...), "unable to append row")
	}

	return errors.Wrap(out.AppendRecord(rec.values, rec.order), "unable to append row")
}

// rename applies names to the combined columns by position.
func rename(out *table.Table, names []string) error {
	columns := out.Columns()
	position := make(map[string]int, len(columns))
	for i, c := range columns {
		position[c] = i
	}

	err := out.RenameColumns(func(c string) string {
		if i := position[c]; i < len(names) {
			return names[i]
		}

		return c
	})

	return errors.Wrap(err, "unable to rename columns")
}

// uniqueName suffixes repeated child names: str, str.1, str.2.
func uniqueName(seen map[string]string, name string) string {
	if _, ok := seen[name]; !ok {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "." + strconv.Itoa(i)
		if _, ok := seen[candidate]; !ok {
			return candidate
		}
	}
}
