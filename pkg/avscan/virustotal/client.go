// Package virustotal provides an avscan.Client backed by the VirusTotal API v3.
package virustotal

import (
	"bytes"
	"context"
	"filescanner/pkg/avscan"
	"filescanner/pkg/domain"
	"filescanner/pkg/metrics"
	"filescanner/pkg/serrors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

const (
	// DefaultBaseURL is the REST root of the public API.
	DefaultBaseURL = "https://www.virustotal.com/api/v3"
	// DefaultGUIURL is the root of the web interface used for permalinks.
	DefaultGUIURL = "https://www.virustotal.com/gui"
)

// Options configure a Client.
type Options struct {
	APIKey string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// GUIURL defaults to DefaultGUIURL.
	GUIURL  string
	Metrics *metrics.Metrics
}

// Client talks to the VirusTotal REST API. It is safe for concurrent use. It
// does not rate limit by itself; every method sends at most one request.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	guiURL     string
	metrics    *metrics.Metrics
}

// New constructs a Client that sends requests through httpClient.
func New(httpClient *http.Client, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.GUIURL == "" {
		opts.GUIURL = DefaultGUIURL
	}

	return &Client{
		httpClient: httpClient,
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		guiURL:     strings.TrimRight(opts.GUIURL, "/"),
		metrics:    opts.Metrics,
	}
}

// do sends req with the API key and returns the status code and the whole body.
func (c *Client) do(req *http.Request, operation string) (int, []byte, error) {
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RemoteRequest(operation, "error")

		return 0, nil, errors.Wrap(err, "send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.metrics.RemoteRequest(operation, strconv.Itoa(resp.StatusCode))

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "read response body")
	}

	return resp.StatusCode, b, nil
}

// statusError classifies a non-2xx response: rejected keys become ErrAuth,
// anything else becomes k.
func statusError(code int, body []byte, k serrors.Kind, operation string) error {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}
	msg := remoteMessage(body)
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return serrors.With(serrors.ErrAuth, "%s rejected with status %d: %s", operation, code, msg)
	}

	return serrors.With(k, "%s failed with status %d: %s", operation, code, msg)
}

// UploadFile streams the file as multipart form data to target, or to POST
// /files when target is empty. The body length is computed up front so the
// request is not sent chunked.
func (c *Client) UploadFile(ctx context.Context, path, target string) (avscan.UploadRes, error) {
	f, err := os.Open(path)
	if err != nil {
		return avscan.UploadRes{}, serrors.Wrap(serrors.ErrIO, err, "could not open %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	info, err := f.Stat()
	if err != nil {
		return avscan.UploadRes{}, serrors.Wrap(serrors.ErrIO, err, "could not stat %s", path)
	}

	if target == "" {
		target = c.baseURL + "/files"
	}

	var head bytes.Buffer
	mw := multipart.NewWriter(&head)
	if _, err := mw.CreateFormFile("file", filepath.Base(path)); err != nil {
		return avscan.UploadRes{}, serrors.Wrap(serrors.ErrUpload, err, "could not build multipart body")
	}
	headLen := head.Len()
	if err := mw.Close(); err != nil {
		return avscan.UploadRes{}, serrors.Wrap(serrors.ErrUpload, err, "could not build multipart body")
	}
	trailer := bytes.Clone(head.Bytes()[headLen:])
	head.Truncate(headLen)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target,
		io.MultiReader(&head, f, bytes.NewReader(trailer)))
	if err != nil {
		return avscan.UploadRes{}, serrors.Wrap(serrors.ErrUpload, err, "could not create upload request")
	}
	req.ContentLength = int64(headLen) + info.Size() + int64(len(trailer))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	code, b, err := c.do(req, "upload")
	if err != nil {
		return avscan.UploadRes{}, serrors.Wrap(serrors.ErrUpload, err, "could not upload %s", path)
	}
	if err := statusError(code, b, serrors.ErrUpload, "upload"); err != nil {
		return avscan.UploadRes{}, err
	}

	id, err := decodeUpload(b)
	if err != nil {
		return avscan.UploadRes{}, serrors.Wrap(serrors.ErrProtocol, err, "unexpected upload response")
	}

	return avscan.UploadRes{AnalysisID: id}, nil
}

// UploadURL calls GET /files/upload_url.
func (c *Client) UploadURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/upload_url", nil)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrUpload, err, "could not create upload url request")
	}
	code, b, err := c.do(req, "upload_url")
	if err != nil {
		return "", serrors.Wrap(serrors.ErrUpload, err, "could not get upload url")
	}
	if err := statusError(code, b, serrors.ErrUpload, "upload url"); err != nil {
		return "", err
	}

	u, err := decodeUploadURL(b)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrProtocol, err, "unexpected upload url response")
	}

	return u, nil
}

// Analysis polls GET /analyses/{id}.
func (c *Client) Analysis(ctx context.Context, analysisID string) (*avscan.Analysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses/"+analysisID, nil)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrAnalysis, err, "could not create analysis request")
	}

	code, b, err := c.do(req, "analysis")
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrAnalysis, err, "could not poll analysis %s", analysisID)
	}
	if err := statusError(code, b, serrors.ErrAnalysis, "analysis"); err != nil {
		return nil, err
	}

	a, err := decodeAnalysis(b)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrProtocol, err, "unexpected analysis response")
	}

	return a, nil
}

// CheckAPIKey calls GET /users/current, which only succeeds for a valid key.
func (c *Client) CheckAPIKey(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/current", nil)
	if err != nil {
		return errors.Wrap(err, "create key check request")
	}
	code, b, err := c.do(req, "check_key")
	if err != nil {
		return serrors.Wrap(serrors.ErrProtocol, err, "could not check api key")
	}

	return statusError(code, b, serrors.ErrProtocol, "api key check")
}

// Permalink returns the detection page of a file.
func (c *Client) Permalink(digest domain.FileDigest) string {
	return c.guiURL + "/file/" + string(digest) + "/detection"
}

// Ensure Client conforms to the avscan.Client interface at compile time.
var _ avscan.Client = (*Client)(nil)
