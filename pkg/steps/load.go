package steps

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/xmletl/pkg/objstore"
	"github.com/askiada/xmletl/pkg/pipeline"
	"github.com/askiada/xmletl/pkg/table"
)

// SaveCSV writes a table as CSV with a header line and no index column.
type SaveCSV struct {
	pipeline.Output

	log   *slog.Logger
	Table *table.Table
	Path  string
}

func buildSaveCSV(env Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitSaveCSV, params)
		s := &SaveCSV{
			log:   log,
			Table: pipeline.Required[*table.Table](args, "data"),
			Path:  pipeline.Optional(args, "file_path", filepath.Join(env.StagingDir, "output.csv")),
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func (s *SaveCSV) Run(_ context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	s.log.Info("Saving table as CSV", "file_path", s.Path)

	if err := writeCSV(s.Path, s.Table); err != nil {
		return fail(s.log, "Error saving CSV", err)
	}

	s.log.Info("CSV saved", "file_path", s.Path)
	s.Set(pipeline.Params{"file_path": s.Path})

	return nil
}

func writeCSV(path string, tbl *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", filepath.Dir(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}

	if err = tbl.WriteCSV(f); err != nil {
		f.Close()

		return err
	}

	return errors.Wrapf(f.Close(), "unable to close %s", path)
}

// UploadToBucket re-encodes a local CSV file and stores it at bucket_address/key. The scheme of
// bucket_address picks the storage service and storage_options configures it.
type UploadToBucket struct {
	pipeline.Output

	env      Env
	log      *slog.Logger
	Path     string
	Location objstore.Location
	Options  map[string]string
}

func buildUploadToBucket(env Env) pipeline.BuildFunc {
	return func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		args := pipeline.NewArgs(UnitUploadToBucket, params)
		s := &UploadToBucket{
			env:     env,
			log:     log,
			Path:    pipeline.Required[string](args, "file_path"),
			Options: pipeline.Optional[map[string]string](args, "storage_options", nil),
		}

		address := pipeline.Required[string](args, "bucket_address")
		key := pipeline.Required[string](args, "key")
		if address != "" && key != "" {
			loc, err := objstore.Join(address, key)
			if err != nil {
				args.Fail("bucket_address", errors.Wrap(pipeline.ErrInvalidParam, err.Error()))
			}
			s.Location = loc
		}
		if err := args.Err(); err != nil {
			return nil, err
		}

		return s, nil
	}
}

func (s *UploadToBucket) Run(ctx context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}

	bucketPath := s.Location.String()

	s.log.Info("Uploading CSV", "file_path", s.Path, "bucket_path", bucketPath)

	data, err := s.encode()
	if err != nil {
		return fail(s.log, "Error uploading CSV to bucket", err)
	}

	backend, err := s.env.Storage(ctx, s.Location.Scheme, s.Options)
	if err != nil {
		return fail(s.log, "Error uploading CSV to bucket", errors.Wrapf(err, "unable to open %s storage", s.Location.Scheme))
	}
	defer backend.Close()

	err = backend.Put(ctx, s.Location.Bucket, s.Location.Key, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fail(s.log, "Error uploading CSV to bucket", errors.Wrapf(err, "unable to upload %s", bucketPath))
	}

	s.log.Info("CSV uploaded", "bucket_path", bucketPath, "bytes", len(data))
	s.Set(pipeline.Params{"bucket_path": bucketPath})

	return nil
}

func (s *UploadToBucket) encode() ([]byte, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", s.Path)
	}
	defer f.Close()

	tbl, err := table.ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", s.Path)
	}

	var buf bytes.Buffer
	if err = tbl.WriteCSV(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ReadBack loads the object at uri as a table.
func ReadBack(ctx context.Context, open objstore.Opener, uri string, options map[string]string) (*table.Table, error) {
	loc, err := objstore.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	backend, err := open(ctx, loc.Scheme, options)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s storage", loc.Scheme)
	}
	defer backend.Close()

	rc, err := backend.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", uri)
	}
	defer rc.Close()

	tbl, err := table.ReadCSV(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", uri)
	}

	return tbl, nil
}
