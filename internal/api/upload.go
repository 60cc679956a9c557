package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/h2non/filetype"
)

// Upload POSTs content as the raw request body. When contentType is empty
// it is sniffed from the data, see SniffContentType.
func (c *Client) Upload(ctx context.Context, s *Session, path string, content io.Reader, contentType string, query map[string]any, opts ...Option) (Result, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read upload content: %w", err)
	}
	if contentType == "" {
		contentType = SniffContentType(data)
	}
	return c.Do(ctx, s, Request{
		Method:      MethodPost,
		Path:        path,
		Body:        data,
		Query:       query,
		ContentType: contentType,
	}, opts...)
}

// UploadMultipart POSTs files as multipart/form-data under fieldName along
// with plain form fields.
func (c *Client) UploadMultipart(ctx context.Context, s *Session, path, fieldName string, fields map[string]string, files map[string][]byte, opts ...Option) (Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, key := range sortedKeys(fields) {
		if err := writer.WriteField(key, fields[key]); err != nil {
			return Result{}, fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	for _, filename := range sortedKeys(files) {
		part, err := writer.CreateFormFile(fieldName, filename)
		if err != nil {
			return Result{}, fmt.Errorf("failed to create form file %s: %w", filename, err)
		}
		if _, err := part.Write(files[filename]); err != nil {
			return Result{}, fmt.Errorf("failed to write file content %s: %w", filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return c.Do(ctx, s, Request{
		Method:      MethodPost,
		Path:        path,
		Body:        body.Bytes(),
		ContentType: writer.FormDataContentType(),
	}, opts...)
}

// SniffContentType recognizes images and other binary formats by their magic
// numbers and falls back to net/http sniffing for text.
func SniffContentType(data []byte) string {
	head := data
	if len(head) > 261 {
		head = head[:261]
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return http.DetectContentType(data)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
