package virustotal_test

import (
	"context"
	"errors"
	"filescanner/pkg/avscan"
	"filescanner/pkg/avscan/virustotal"
	"filescanner/pkg/serrors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(fn rtFunc) *virustotal.Client {
	return virustotal.New(&http.Client{Transport: fn}, virustotal.Options{APIKey: "test-key"})
}

func respond(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func TestClient_UploadFile_success(t *testing.T) {
	path := writeFile(t, "hello world")

	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "www.virustotal.com", r.URL.Host)
		require.Equal(t, "/api/v3/files", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-apikey"))

		mr, err := r.MultipartReader()
		require.NoError(t, err)
		part, err := mr.NextPart()
		require.NoError(t, err)
		require.Equal(t, "file", part.FormName())
		require.Equal(t, "sample.bin", part.FileName())
		content, err := io.ReadAll(part)
		require.NoError(t, err)
		require.Equal(t, "hello world", string(content))
		_, err = mr.NextPart()
		require.ErrorIs(t, err, io.EOF)

		return respond(http.StatusOK, `{"data":{"type":"analysis","id":"an-123"}}`), nil
	})

	res, err := c.UploadFile(context.Background(), path, "")
	require.NoError(t, err)
	require.Equal(t, "an-123", res.AnalysisID)
}

func TestClient_UploadFile_contentLengthMatchesBody(t *testing.T) {
	path := writeFile(t, strings.Repeat("x", 4096))

	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, r.ContentLength, int64(len(b)))

		return respond(http.StatusOK, `{"data":{"id":"an-1"}}`), nil
	})

	_, err := c.UploadFile(context.Background(), path, "")
	require.NoError(t, err)
}

func TestClient_UploadFile_errors(t *testing.T) {
	path := writeFile(t, "data")

	tests := []struct {
		name string
		rt   rtFunc
		kind error
	}{
		{
			name: "rejected key",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusUnauthorized, `{"error":{"code":"WrongCredentialsError","message":"Wrong API key"}}`), nil
			},
			kind: serrors.ErrAuth,
		},
		{
			name: "forbidden",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusForbidden, `{}`), nil
			},
			kind: serrors.ErrAuth,
		},
		{
			name: "server error",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusInternalServerError, `oops`), nil
			},
			kind: serrors.ErrUpload,
		},
		{
			name: "transport failure",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection reset")
			},
			kind: serrors.ErrUpload,
		},
		{
			name: "missing id",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusOK, `{"data":{"type":"analysis"}}`), nil
			},
			kind: serrors.ErrProtocol,
		},
		{
			name: "malformed body",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusOK, `{"data":`), nil
			},
			kind: serrors.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.rt).UploadFile(context.Background(), path, "")
			require.Error(t, err)
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestClient_UploadFile_authMessage(t *testing.T) {
	path := writeFile(t, "data")
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusUnauthorized, `{"error":{"message":"Wrong API key"}}`), nil
	})

	_, err := c.UploadFile(context.Background(), path, "")
	require.ErrorContains(t, err, "Wrong API key")
}

func TestClient_UploadFile_missingFile(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")

		return nil, nil
	})

	_, err := c.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope"), "")
	require.ErrorIs(t, err, serrors.ErrIO)
}

func TestClient_UploadFile_customTarget(t *testing.T) {
	path := writeFile(t, "large")

	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "upload.vt.test", r.URL.Host)
		require.Equal(t, "/_ah/upload/xyz", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-apikey"))

		return respond(http.StatusOK, `{"data":{"type":"analysis","id":"an-big"}}`), nil
	})

	res, err := c.UploadFile(context.Background(), path, "https://upload.vt.test/_ah/upload/xyz")
	require.NoError(t, err)
	require.Equal(t, "an-big", res.AnalysisID)
}

func TestClient_UploadURL(t *testing.T) {
	var calls int
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v3/files/upload_url", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-apikey"))

		return respond(http.StatusOK, `{"data":"https://upload.vt.test/_ah/upload/xyz"}`), nil
	})

	u, err := c.UploadURL(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://upload.vt.test/_ah/upload/xyz", u)
	require.Equal(t, 1, calls)
}

func TestClient_UploadURL_errors(t *testing.T) {
	tests := []struct {
		name string
		rt   rtFunc
		kind error
	}{
		{
			name: "empty data",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusOK, `{"data":""}`), nil
			},
			kind: serrors.ErrProtocol,
		},
		{
			name: "no data",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusOK, `{}`), nil
			},
			kind: serrors.ErrProtocol,
		},
		{
			name: "quota",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusTooManyRequests, `{"error":{"code":"QuotaExceededError"}}`), nil
			},
			kind: serrors.ErrUpload,
		},
		{
			name: "rejected key",
			rt: func(*http.Request) (*http.Response, error) {
				return respond(http.StatusForbidden, `{}`), nil
			},
			kind: serrors.ErrAuth,
		},
		{
			name: "transport",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection reset")
			},
			kind: serrors.ErrUpload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.rt).UploadURL(context.Background())
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

const completedAnalysis = `{
  "meta": {"file_info": {"sha256": "abc"}},
  "data": {
    "id": "an-123",
    "type": "analysis",
    "attributes": {
      "date": 1700000000,
      "status": "completed",
      "stats": {"malicious": 2, "suspicious": 1, "undetected": 60, "harmless": 0, "timeout": 1, "type-unsupported": 3},
      "results": {
        "EngineA": {"category": "malicious", "engine_name": "EngineA", "engine_version": "1.0", "result": "EICAR-Test", "method": "blacklist", "engine_update": "20240101"},
        "EngineB": {"category": "suspicious", "engine_name": "EngineB", "engine_version": null, "result": "Heur", "engine_update": null},
        "EngineC": {"category": "undetected", "engine_name": "EngineC", "result": null}
      }
    }
  }
}`

func TestClient_Analysis_completed(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v3/analyses/an-123", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-apikey"))

		return respond(http.StatusOK, completedAnalysis), nil
	})

	a, err := c.Analysis(context.Background(), "an-123")
	require.NoError(t, err)
	require.Equal(t, avscan.AnalysisCompleted, a.Status)
	require.Equal(t, 2, a.Stats.Malicious)
	require.Equal(t, 1, a.Stats.Suspicious)
	require.Equal(t, 60, a.Stats.Undetected)
	// no total member: every counter is summed
	require.Equal(t, 67, a.Stats.Total)

	require.Len(t, a.Engines, 3)
	require.True(t, a.Engines["EngineA"].Detected)
	require.Equal(t, "EICAR-Test", a.Engines["EngineA"].Result)
	require.Equal(t, "1.0", a.Engines["EngineA"].EngineVersion)
	require.Equal(t, "20240101", a.Engines["EngineA"].EngineUpdate)
	require.False(t, a.Engines["EngineB"].Detected)
	require.Equal(t, "suspicious", a.Engines["EngineB"].Category)
	require.Empty(t, a.Engines["EngineC"].Result)
}

func TestClient_Analysis_explicitTotal(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK,
			`{"data":{"attributes":{"status":"completed","stats":{"malicious":1,"undetected":5,"total":70}}}}`), nil
	})

	a, err := c.Analysis(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, 70, a.Stats.Total)
}

func TestClient_Analysis_queued(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"data":{"attributes":{"status":"queued","stats":{},"results":{}}}}`), nil
	})

	a, err := c.Analysis(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, avscan.AnalysisQueued, a.Status)
}

func TestClient_Analysis_errors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		kind error
	}{
		{name: "rejected key", code: http.StatusUnauthorized, body: `{}`, kind: serrors.ErrAuth},
		{name: "not found", code: http.StatusNotFound, body: `{}`, kind: serrors.ErrAnalysis},
		{name: "quota", code: http.StatusTooManyRequests, body: `{}`, kind: serrors.ErrAnalysis},
		{name: "no status", code: http.StatusOK, body: `{"data":{"attributes":{}}}`, kind: serrors.ErrProtocol},
		{name: "unknown status", code: http.StatusOK, body: `{"data":{"attributes":{"status":"weird"}}}`, kind: serrors.ErrProtocol},
		{name: "no data", code: http.StatusOK, body: `{}`, kind: serrors.ErrProtocol},
		{name: "bad stats", code: http.StatusOK, body: `{"data":{"attributes":{"status":"completed","stats":{"malicious":"x"}}}}`, kind: serrors.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(func(*http.Request) (*http.Response, error) {
				return respond(tt.code, tt.body), nil
			})
			_, err := c.Analysis(context.Background(), "x")
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestClient_CheckAPIKey(t *testing.T) {
	ok := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "/api/v3/users/current", r.URL.Path)

		return respond(http.StatusOK, `{"data":{"id":"me"}}`), nil
	})
	require.NoError(t, ok.CheckAPIKey(context.Background()))

	bad := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusUnauthorized, `{}`), nil
	})
	require.ErrorIs(t, bad.CheckAPIKey(context.Background()), serrors.ErrAuth)

	down := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusServiceUnavailable, `{}`), nil
	})
	err := down.CheckAPIKey(context.Background())
	require.ErrorIs(t, err, serrors.ErrProtocol)
	require.NotErrorIs(t, err, serrors.ErrUpload)

	unreachable := newTestClient(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: no route to host")
	})
	err = unreachable.CheckAPIKey(context.Background())
	require.ErrorIs(t, err, serrors.ErrProtocol)
	require.NotErrorIs(t, err, serrors.ErrUpload)
}

func TestClient_Permalink(t *testing.T) {
	c := virustotal.New(http.DefaultClient, virustotal.Options{})
	require.Equal(t, "https://www.virustotal.com/gui/file/abc/detection", c.Permalink("abc"))

	c = virustotal.New(http.DefaultClient, virustotal.Options{GUIURL: "http://vt.local/ui/"})
	require.Equal(t, "http://vt.local/ui/file/abc/detection", c.Permalink("abc"))
}

func TestClient_CustomBaseURL(t *testing.T) {
	c := virustotal.New(&http.Client{Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "vt.local", r.URL.Host)
		require.Equal(t, "/v3/analyses/a", r.URL.Path)

		return respond(http.StatusOK, `{"data":{"attributes":{"status":"in-progress"}}}`), nil
	})}, virustotal.Options{BaseURL: "http://vt.local/v3/"})

	a, err := c.Analysis(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, avscan.AnalysisInProgress, a.Status)
}
