package cmd

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadCmd_Raw(t *testing.T) {
	var query, contentType, body string
	handler := newRouteHandler().On("POST", "/imports", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		jsonResponse(202, `{"importId": "imp-1"}`)(w, r)
	})
	setupTestEnv(t, handler)

	file := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(file, []byte("sku,name\nS1,Shirt\n"), 0o600))

	res := execute(t, "upload", "/imports", file, "-p", "import_mode=append", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "importMode=append", query)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
	assert.Equal(t, "sku,name\nS1,Shirt\n", body)
	assert.Equal(t, "imp-1", decodeObject(t, res.stdout)["import_id"])
}

func TestUploadCmd_RawContentTypeFromStdin(t *testing.T) {
	var contentType string
	handler := newRouteHandler().On("POST", "/imports", func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		jsonResponse(202, `{}`)(w, r)
	})
	setupTestEnv(t, handler)

	res := executeWithInput(t, "a,b", "upload", "/imports", "-", "--ct", "text/csv")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "text/csv", contentType)
}

func TestUploadCmd_Multipart(t *testing.T) {
	var (
		mode, fileName, content string
	)
	handler := newRouteHandler().On("POST", "/imports", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		mode = r.FormValue("mode")
		f, hdr, err := r.FormFile("document")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer func() { _ = f.Close() }()
		data, _ := io.ReadAll(f)
		fileName, content = hdr.Filename, string(data)
		jsonResponse(201, `{"id": "doc-1"}`)(w, r)
	})
	setupTestEnv(t, handler)

	file := filepath.Join(t.TempDir(), "terms.txt")
	require.NoError(t, os.WriteFile(file, []byte("terms"), 0o600))

	res := execute(t, "upload", "/imports", file, "--multipart", "--field", "document", "--form", "mode=replace", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "replace", mode)
	assert.Equal(t, "terms.txt", fileName)
	assert.Equal(t, "terms", content)

	res = executeWithInput(t, "piped", "upload", "/imports", "-", "--multipart", "--field", "document")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "upload", fileName)
}

func TestUploadCmd_Validation(t *testing.T) {
	setupTestEnv(t, newRouteHandler())

	res := executeWithInput(t, "x", "upload", "/imports", "-", "--multipart", "--content-type", "text/csv")
	require.Error(t, res.err)
	assert.Equal(t, exitUsage, ExitCode(res.err))

	res = execute(t, "upload", "/imports", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, res.err)

	res = execute(t, "upload", "/imports")
	require.Error(t, res.err)
	assert.Equal(t, exitUsage, ExitCode(res.err))
}
