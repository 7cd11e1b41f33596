package steps

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/xmletl/pkg/pipeline"
	"github.com/askiada/xmletl/pkg/table"
	"github.com/askiada/xmletl/pkg/xmltable"
)

// DefaultSourceColumn is the column generate_a_columns counts in.
const DefaultSourceColumn = "FinInstrmGnlAttrbts.FullNm"

// TransformXML parses a local XML file into a table. With iterparse, each element named by the
// single key becomes a row holding its first descendant of every listed name, and xpath is not
// used. Columns are then prefixed with column_prefix, except those in prefix_exclude.
type TransformXML struct {
	pipeline.Output

	log           *slog.Logger
	Path          string
	XPath         string
	Namespaces    map[string]string
	Record        string
	Fields        []string
	ColumnPrefix  string
	PrefixExclude []string
}

func buildTransformXML(_ Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitTransformXML, params)
		s := &TransformXML{
			log:           log,
			Path:          pipeline.Required[string](args, "file_path"),
			XPath:         pipeline.Required[string](args, "xpath"),
			Namespaces:    pipeline.Optional[map[string]string](args, "namespaces", nil),
			ColumnPrefix:  pipeline.Optional(args, "column_prefix", ""),
			PrefixExclude: pipeline.Optional[[]string](args, "prefix_exclude", nil),
		}

		iterparse := pipeline.Optional[map[string][]string](args, "iterparse", nil)
		switch len(iterparse) {
		case 0:
		case 1:
			for record, fields := range iterparse {
				s.Record, s.Fields = record, fields
			}
			if len(s.Fields) == 0 {
				args.Fail("iterparse", errors.Wrapf(pipeline.ErrInvalidParam, "%s lists no fields", s.Record))
			}
		default:
			args.Fail("iterparse", errors.Wrapf(pipeline.ErrInvalidParam, "got %d record elements, want one", len(iterparse)))
		}

		if _, err := xmltable.ParsePath(s.path(), s.Namespaces); err != nil {
			args.Fail("xpath", errors.Wrap(pipeline.ErrInvalidParam, err.Error()))
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func (s *TransformXML) path() string {
	if s.Record != "" {
		return "//" + s.Record
	}

	return s.XPath
}

func (s *TransformXML) Run(_ context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	s.log.Info("Transforming XML to table", "file_path", s.Path)

	f, err := os.Open(s.Path)
	if err != nil {
		return fail(s.log, "Error parsing XML to table", errors.Wrapf(err, "unable to open %s", s.Path))
	}
	defer f.Close()

	tbl, err := xmltable.Read(f, xmltable.Options{Path: s.path(), Namespaces: s.Namespaces, Fields: s.Fields})
	if err != nil {
		return fail(s.log, "Error parsing XML to table", err)
	}

	if s.ColumnPrefix != "" {
		err = tbl.RenameColumns(func(column string) string {
			if slices.Contains(s.PrefixExclude, column) {
				return column
			}

			return s.ColumnPrefix + column
		})
		if err != nil {
			return fail(s.log, "Unable to rename columns", err)
		}
	}

	s.log.Info("XML processed", "rows", tbl.Len())
	s.Set(pipeline.Params{"data": tbl})

	return nil
}

// GenerateAColumns adds a_count, the number of lowercase "a" in the source column, and
// contains_a, YES when that count is positive and NO otherwise.
type GenerateAColumns struct {
	pipeline.Output

	log    *slog.Logger
	Table  *table.Table
	Source string
}

func buildGenerateAColumns(_ Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitGenerateAColumns, params)
		s := &GenerateAColumns{
			log:    log,
			Table:  pipeline.Required[*table.Table](args, "data"),
			Source: pipeline.Optional(args, "source_column", DefaultSourceColumn),
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func (s *GenerateAColumns) Run(_ context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	s.log.Info("Generating 'a' count columns", "source_column", s.Source)

	values, err := s.Table.Column(s.Source)
	if err != nil {
		return fail(s.log, "Error creating columns", err)
	}

	counts := make([]string, len(values))
	flags := make([]string, len(values))
	for i, v := range values {
		n := strings.Count(v, "a")
		counts[i] = strconv.Itoa(n)
		flags[i] = "NO"
		if n > 0 {
			flags[i] = "YES"
		}
	}

	out := s.Table.Clone()
	if err = out.SetColumn("a_count", counts); err != nil {
		return fail(s.log, "Error creating columns", err)
	}
	if err = out.SetColumn("contains_a", flags); err != nil {
		return fail(s.log, "Error creating columns", err)
	}

	s.log.Info("Columns created", "rows", out.Len())
	s.Set(pipeline.Params{"data": out})

	return nil
}
