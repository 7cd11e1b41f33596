// Package steps provides the concrete extract, transform and load units and registers them
// under their unit identifiers.
package steps

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/xmletl/pkg/objstore"
	"github.com/askiada/xmletl/pkg/pipeline"
)

const (
	UnitExtractXML       = "extract_xml"
	UnitSelectLink       = "select_link"
	UnitDownloadFile     = "download_file"
	UnitUnzipFile        = "unzip_file"
	UnitTransformXML     = "transform_xml"
	UnitGenerateAColumns = "generate_a_columns"
	UnitSaveCSV          = "save_csv"
	UnitUploadToBucket   = "upload_to_bucket"
)

var ErrHTTPStatus = errors.New("unexpected http status")

// Env is shared by every unit built from one registry. It is never modified after Register.
type Env struct {
	Client     *http.Client
	StagingDir string
	// ChunkSize is the buffer size for downloads and the part size for chunked uploads.
	ChunkSize int
	Storage   objstore.Opener
}

func (e Env) withDefaults() Env {
	if e.Client == nil {
		e.Client = http.DefaultClient
	}
	if e.StagingDir == "" {
		e.StagingDir = "tmp"
	}
	if e.ChunkSize <= 0 {
		e.ChunkSize = 1 << 20
	}
	if e.Storage == nil {
		e.Storage = objstore.NewOpener(e.ChunkSize)
	}

	return e
}

// Register adds every unit to reg.
func Register(reg *pipeline.Registry, env Env) error {
	env = env.withDefaults()

	builders := map[string]func(Env) pipeline.BuildFunc{
		UnitExtractXML:       buildExtractXML,
		UnitSelectLink:       buildSelectLink,
		UnitDownloadFile:     buildDownloadFile,
		UnitUnzipFile:        buildUnzipFile,
		UnitTransformXML:     buildTransformXML,
		UnitGenerateAColumns: buildGenerateAColumns,
		UnitSaveCSV:          buildSaveCSV,
		UnitUploadToBucket:   buildUploadToBucket,
	}
	for unit, build := range builders {
		if err := reg.Register(unit, build(env)); err != nil {
			return errors.Wrapf(err, "unable to register %s", unit)
		}
	}

	return nil
}

// NewRegistry returns a registry holding every unit.
func NewRegistry(env Env) (*pipeline.Registry, error) {
	reg := pipeline.NewRegistry()
	if err := Register(reg, env); err != nil {
		return nil, err
	}

	return reg, nil
}

// open reads an http(s) URL through the client, or anything else as a local path.
func (e Env) open(ctx context.Context, location string) (io.ReadCloser, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		f, err := os.Open(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open %s", location)
		}

		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create request")
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get %s", location)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()

		return nil, errors.Wrapf(ErrHTTPStatus, "%s: %s", location, resp.Status)
	}

	return resp.Body, nil
}

// fail logs the unit's single diagnostic for err and returns it.
func fail(log *slog.Logger, msg string, err error) error {
	log.Error(msg, "error", err)

	return err
}
