package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/waynex/admin/internal/metrics"
)

// MutateOptions describes a write.
type MutateOptions struct {
	Method      string // POST, PUT or DELETE
	Body        []byte // optional
	ContentType string // defaults to application/json when Body is set
}

// Mutate performs an authenticated write and returns the parsed JSON body,
// or nil when the body is empty. Any failure is returned as *APIError whose
// message is the body's "error" field or MutationFailedMessage. Mutate never
// retries and never revalidates; callers refresh affected keys themselves.
func (c *Client) Mutate(ctx context.Context, path string, opts MutateOptions) (json.RawMessage, error) {
	switch opts.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, opts.Method)
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := c.newRequest(ctx, opts.Method, path, body)
	if err != nil {
		return nil, &APIError{Message: MutationFailedMessage, Err: err}
	}
	if len(opts.Body) > 0 {
		contentType := opts.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}

	result, err := c.finishMutation(req)
	metrics.RecordMutation(opts.Method, err == nil)
	return result, err
}

func (c *Client) finishMutation(req *http.Request) (json.RawMessage, error) {
	status, data, err := c.do(req)
	if err != nil {
		return nil, requestError(req, status, MutationFailedMessage, err)
	}
	if !isSuccess(status) {
		return nil, requestError(req, status, serverMessage(data, MutationFailedMessage, "error"), nil)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, requestError(req, status, MutationFailedMessage, errInvalidJSON)
	}
	return json.RawMessage(data), nil
}

// MutateJSON encodes v as the request body and calls Mutate. A nil v sends
// no body.
func (c *Client) MutateJSON(ctx context.Context, method, path string, v any) (json.RawMessage, error) {
	opts := MutateOptions{Method: method}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		opts.Body = data
	}
	return c.Mutate(ctx, path, opts)
}

// FormFile is a file part of a multipart upload.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// MutateMultipart POSTs a multipart form with one file and optional text
// fields. Empty field values are omitted.
func (c *Client) MutateMultipart(ctx context.Context, path string, file FormFile, fields map[string]string) (json.RawMessage, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(file.Field, file.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, fmt.Errorf("copy form file: %w", err)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	return c.Mutate(ctx, path, MutateOptions{
		Method:      http.MethodPost,
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	})
}
