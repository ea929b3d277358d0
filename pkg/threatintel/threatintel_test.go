package threatintel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apacheListing = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">
<html>
 <head><title>Index of /downloads/misp</title></head>
 <body>
<h1>Index of /downloads/misp</h1>
<table>
 <tr><th><a href="?C=N;O=A">Name</a></th><th><a href="?C=M;O=A">Last modified</a></th></tr>
 <tr><td><a href="/downloads/">Parent Directory</a></td></tr>
 <tr><td><a href="manifest.json">manifest.json</a></td></tr>
 <tr><td><a href="c.json">c.json</a></td></tr>
 <tr><td><a href="b.json">b.json</a></td></tr>
 <tr><td><a href="readme.txt">readme.txt</a></td></tr>
 <tr><td><a href="a.json">a.json</a></td></tr>
 <tr><td><a name="anchor-without-href">x.json</a></td></tr>
</table>
</body></html>`

func TestParseListing(t *testing.T) {
	names, err := ParseListing([]byte(apacheListing), ".json", "manifest.json", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"c.json", "b.json", "a.json"}, names)
}

func TestParseListingLimit(t *testing.T) {
	names, err := ParseListing([]byte(apacheListing), ".json", "manifest.json", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"c.json"}, names)
}

func TestParseListingDropsDuplicates(t *testing.T) {
	page := `<a href="b.json">b</a><a href="a.json">a</a><a href="b.json">again</a>`
	names, err := ParseListing([]byte(page), ".json", "manifest.json", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"b.json", "a.json"}, names)
}

func TestParseListingEmpty(t *testing.T) {
	names, err := ParseListing([]byte("<html><body>nothing here</body></html>"), ".json", "manifest.json", 0)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestFileURL(t *testing.T) {
	testCases := []struct {
		base string
		name string
		want string
	}{
		{"https://bazaar.abuse.ch/downloads/misp/?C=M;O=D", "x.json", "https://bazaar.abuse.ch/downloads/misp/x.json"},
		{"http://host/feed/index.html", "a.json", "http://host/feed/a.json"},
		{"http://host/feed/", "a.json", "http://host/feed/a.json"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, FileURL(tc.base, tc.name), tc.base)
	}
}

func TestCheckName(t *testing.T) {
	require.NoError(t, checkName("0a1b2c.json"))
	for _, bad := range []string{"", ".", "..", "../x.json", "x..json", "..x.json", "dir/x.json", `dir\x.json`, "/etc/x.json"} {
		require.Error(t, checkName(bad), bad)
	}
}

func TestListCandidateFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(apacheListing))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "test-agent")
	names, err := c.ListCandidateFiles(context.Background(), srv.URL+"/misp/?C=M;O=D", ".json", "manifest.json", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"c.json", "b.json", "a.json"}, names)
}

func TestListCandidateFilesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "")
	_, err := c.ListCandidateFiles(context.Background(), srv.URL+"/misp/", ".json", "manifest.json", 0)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrBadStatus))
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/misp/a.json":
			_, _ = w.Write([]byte(`{"Event":{"Object":[]}}`))
		case "/misp/c.json":
			_, _ = w.Write([]byte(`{"Event":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(NewClient(5*time.Second, ""), srv.URL+"/misp/?C=M;O=D", dir)
	results := f.FetchAll(context.Background(), []string{"c.json", "b.json", "a.json", "../escape.json"})

	require.Len(t, results, 4)
	require.Equal(t, int32(3), hits.Load(), "unsafe names are never requested")

	require.True(t, results[0].OK())
	require.Equal(t, "c.json", results[0].Name)
	require.Equal(t, filepath.Join(dir, "c.json"), results[0].Path)
	require.Equal(t, "application/json", results[0].MimeType)
	require.Equal(t, PayloadDigest([]byte(`{"Event":{}}`)), results[0].Digest)

	require.False(t, results[1].OK())
	require.True(t, errors.Is(results[1].Err, ErrBadStatus))
	_, err := os.Stat(filepath.Join(dir, "b.json"))
	require.True(t, os.IsNotExist(err))

	require.True(t, results[2].OK())
	data, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"Event":{"Object":[]}}`, string(data))

	require.False(t, results[3].OK())
	require.True(t, errors.Is(results[3].Err, errUnsafeName))
}

func TestFetchAllEmpty(t *testing.T) {
	f := NewFetcher(NewClient(time.Second, ""), "http://127.0.0.1:1/misp/", t.TempDir())
	require.Empty(t, f.FetchAll(context.Background(), nil))
}
