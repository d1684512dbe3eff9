package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
)

// FetchURL retrieves a single URL, enforcing domain gating and idempotent
// content-addressed storage (§4.C). On HTTP status ≥400 returns
// FetchFailed (recoverable iff status ≥500, 408, or 429); on timeout
// returns FetchTimeout (recoverable); on transport failure returns
// FetchFailed (recoverable).
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string, opts Options) (RawArtifact, error) {
	if err := checkDomain(rawURL, opts.AllowDomains, opts.BlockDomains); err != nil {
		return RawArtifact{}, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return RawArtifact{}, ierrors.New(ierrors.CodeFetchFailed, "build request: "+err.Error(), err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return RawArtifact{}, ierrors.New(ierrors.CodeFetchTimeout, "fetch timed out: "+rawURL, err).WithRetryable(true)
		}
		return RawArtifact{}, ierrors.New(ierrors.CodeFetchFailed, "transport error: "+err.Error(), err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		recoverable := resp.StatusCode >= 500 || resp.StatusCode == 408 || resp.StatusCode == 429
		return RawArtifact{}, ierrors.New(ierrors.CodeFetchFailed, "unexpected status: "+resp.Status, nil).
			WithDetail("status_code", resp.Status).
			WithRetryable(recoverable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawArtifact{}, ierrors.New(ierrors.CodeFetchFailed, "read body: "+err.Error(), err).WithRetryable(true)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return f.put(body, contentType, rawURL, opts.Force)
}

// readLocalFile reads a file from disk for FetchFolder/FetchPDF(local path).
func readLocalFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ierrors.New(ierrors.CodeFetchFailed, "read file: "+err.Error(), err)
	}
	return data, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
