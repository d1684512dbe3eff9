package fetch

import (
	"bytes"
	"context"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
)

var pdfMagic = []byte("%PDF")

// FetchPDF retrieves a PDF either over HTTP or from a local path and
// validates the %PDF magic bytes before storing it (§4.C). A bad magic
// number returns ParseError rather than silently indexing non-PDF bytes.
func (f *Fetcher) FetchPDF(ctx context.Context, uriOrPath string, opts Options) (RawArtifact, error) {
	var (
		data []byte
		err  error
	)
	if isHTTPURL(uriOrPath) {
		artifact, ferr := f.FetchURL(ctx, uriOrPath, opts)
		if ferr != nil {
			return RawArtifact{}, ferr
		}
		data, err = f.blobs.Get(artifact.Sha256, artifact.ContentType)
		if err != nil {
			return RawArtifact{}, ierrors.New(ierrors.CodeParseError, "read fetched pdf: "+err.Error(), err)
		}
		if !bytes.HasPrefix(data, pdfMagic) {
			return RawArtifact{}, ierrors.New(ierrors.CodeParseError, "not a valid PDF: bad magic bytes", nil).
				WithDetail("uri", uriOrPath)
		}
		return artifact, nil
	}

	data, err = readLocalFile(uriOrPath)
	if err != nil {
		return RawArtifact{}, err
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return RawArtifact{}, ierrors.New(ierrors.CodeParseError, "not a valid PDF: bad magic bytes", nil).
			WithDetail("path", uriOrPath)
	}
	return f.put(data, "application/pdf", uriOrPath, opts.Force)
}
