package steps

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"

	"github.com/askiada/xmletl/pkg/pipeline"
	"github.com/askiada/xmletl/pkg/table"
	"github.com/askiada/xmletl/pkg/xmltable"
)

var (
	ErrNoFileName   = errors.New("url has no file name")
	ErrUnsafeEntry  = errors.New("archive entry escapes the target directory")
	ErrMissingEntry = errors.New("archive did not contain the expected file")
)

// ExtractXML reads an XML document from a URL or a local path into a table.
type ExtractXML struct {
	pipeline.Output

	env        Env
	log        *slog.Logger
	URL        string
	XPath      string
	Names      []string
	Namespaces map[string]string
}

func buildExtractXML(env Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitExtractXML, params)
		s := &ExtractXML{
			env:        env,
			log:        log,
			URL:        pipeline.Required[string](args, "url"),
			XPath:      pipeline.Required[string](args, "xpath"),
			Names:      pipeline.Optional[[]string](args, "names", nil),
			Namespaces: pipeline.Optional[map[string]string](args, "namespaces", nil),
		}
		if _, err := xmltable.ParsePath(s.XPath, s.Namespaces); err != nil {
			args.Fail("xpath", errors.Wrap(pipeline.ErrInvalidParam, err.Error()))
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func (s *ExtractXML) Run(ctx context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	s.log.Info("Extracting XML", "url", s.URL)

	body, err := s.env.open(ctx, s.URL)
	if err != nil {
		return fail(s.log, "Unable to fetch XML", err)
	}
	defer body.Close()

	tbl, err := xmltable.Read(body, xmltable.Options{Path: s.XPath, Namespaces: s.Namespaces, Names: s.Names})
	if err != nil {
		return fail(s.log, "Unable to parse XML", err)
	}

	s.log.Info("XML parsed to table", "rows", tbl.Len())
	s.Set(pipeline.Params{"xml_df": tbl})

	return nil
}

// SelectLink picks the link of the Nth row whose filter column equals the wanted file type.
type SelectLink struct {
	pipeline.Output

	log            *slog.Logger
	Table          *table.Table
	FileType       string
	SelectDocument int
	FilterColumn   string
	LinkColumn     string
}

func buildSelectLink(_ Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitSelectLink, params)
		s := &SelectLink{
			log:            log,
			Table:          pipeline.Required[*table.Table](args, "xml_df"),
			FileType:       pipeline.Required[string](args, "file_type"),
			SelectDocument: pipeline.Required[int](args, "select_document"),
			FilterColumn:   pipeline.Optional(args, "filter_column", "file_type"),
			LinkColumn:     pipeline.Optional(args, "link_column", "download_link"),
		}
		if s.SelectDocument < 0 {
			args.Fail("select_document", errors.Wrapf(pipeline.ErrInvalidParam, "index %d is negative", s.SelectDocument))
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func (s *SelectLink) Run(_ context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	s.log.Info("Selecting link", "file_type", s.FileType, "select_document", s.SelectDocument)

	rows, err := s.Table.RowsWhere(s.FilterColumn, s.FileType)
	if err != nil {
		return fail(s.log, "Unable to filter table", err)
	}
	if s.SelectDocument >= len(rows) {
		return fail(s.log, "No document found", &pipeline.LookupError{
			Column:  s.FilterColumn,
			Value:   s.FileType,
			Index:   s.SelectDocument,
			Matches: len(rows),
		})
	}

	link, err := s.Table.Value(rows[s.SelectDocument], s.LinkColumn)
	if err != nil {
		return fail(s.log, "Unable to read link", err)
	}

	s.log.Info("Link selected", "download_link", link)
	s.Set(pipeline.Params{"download_link": link})

	return nil
}

// DownloadFile saves the body of a URL in the staging directory under the URL's last path segment.
type DownloadFile struct {
	pipeline.Output

	env  Env
	log  *slog.Logger
	Link string
}

func buildDownloadFile(env Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitDownloadFile, params)
		s := &DownloadFile{
			env:  env,
			log:  log,
			Link: pipeline.Required[string](args, "download_link"),
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func fileName(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", errors.Wrapf(err, "unable to parse %s", link)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", errors.Wrap(ErrNoFileName, link)
	}

	return name, nil
}

func (s *DownloadFile) Run(ctx context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	s.log.Info("Downloading file", "url", s.Link)

	name, err := fileName(s.Link)
	if err != nil {
		return fail(s.log, "Unable to name download", err)
	}
	if err = os.MkdirAll(s.env.StagingDir, 0o755); err != nil {
		return fail(s.log, "Unable to create staging directory", errors.Wrap(err, "unable to create staging directory"))
	}

	dst := filepath.Join(s.env.StagingDir, name)
	if err = s.download(ctx, dst); err != nil {
		return fail(s.log, "Error downloading file", err)
	}

	s.log.Info("File downloaded", "file_path", dst)
	s.Set(pipeline.Params{"file_path": dst})

	return nil
}

func (s *DownloadFile) download(ctx context.Context, dst string) error {
	body, err := s.env.open(ctx, s.Link)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", dst)
	}

	_, err = io.CopyBuffer(f, body, make([]byte, s.env.ChunkSize))
	if err != nil {
		f.Close()

		return errors.Wrapf(err, "unable to write %s", dst)
	}

	return errors.Wrapf(f.Close(), "unable to close %s", dst)
}

// UnzipFile extracts an archive next to itself. The result is the archive path with an .xml
// extension, which the archive must have produced.
type UnzipFile struct {
	pipeline.Output

	log  *slog.Logger
	Path string
}

func buildUnzipFile(_ Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitUnzipFile, params)
		s := &UnzipFile{
			log:  log,
			Path: pipeline.Required[string](args, "file_path"),
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func (s *UnzipFile) Run(_ context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	s.log.Info("Unzipping file", "file_path", s.Path)

	dir := filepath.Dir(s.Path)
	if err := extractAll(s.Path, dir); err != nil {
		return fail(s.log, "Error unzipping file", err)
	}

	out := strings.TrimSuffix(s.Path, filepath.Ext(s.Path)) + ".xml"
	if _, err := os.Stat(out); err != nil {
		return fail(s.log, "Error unzipping file", errors.Wrap(ErrMissingEntry, filepath.Base(out)))
	}

	s.log.Info("File unzipped", "file_path", out)
	s.Set(pipeline.Params{"file_path": out})

	return nil
}

func extractAll(archive, dir string) error {
	rd, err := zip.OpenReader(archive)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", archive)
	}
	defer rd.Close()

	for _, entry := range rd.File {
		if !filepath.IsLocal(entry.Name) {
			return errors.Wrap(ErrUnsafeEntry, entry.Name)
		}
		target := filepath.Join(dir, entry.Name)

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "unable to create %s", target)
			}

			continue
		}

		if err := extractEntry(entry, target); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", filepath.Dir(target))
	}

	src, err := entry.Open()
	if err != nil {
		return errors.Wrapf(err, "unable to open entry %s", entry.Name)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", target)
	}

	if _, err = io.Copy(dst, src); err != nil { //nolint:gosec
		dst.Close()

		return errors.Wrapf(err, "unable to extract %s", entry.Name)
	}

	return errors.Wrapf(dst.Close(), "unable to close %s", target)
}
