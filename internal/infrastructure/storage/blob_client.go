// Package storage is the adapter for the external blob-upload service. The
// service is reached over HTTP: a multipart POST stores one file and returns
// its stable URI, a DELETE removes a stored blob.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
)

const defaultTimeout = 30 * time.Second

// Config captures the settings for reaching the blob service.
type Config struct {
	// BaseURL is the root of the blob service, e.g. "https://blobs.internal".
	BaseURL string
	// Folder namespaces stored objects, e.g. "marketplace".
	Folder  string
	Timeout time.Duration
}

// Client implements ports.BlobUploader against the blob service.
type Client struct {
	baseURL string
	folder  string
	http    *http.Client
}

// NewClient builds a Client. A default timeout is applied when none is given.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		folder:  cfg.Folder,
		http:    &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload stores one file under a fresh object key and returns the URI the
// service assigned to it.
func (c *Client) Upload(ctx context.Context, file ports.UploadFile) (string, error) {
	key := uuid.NewString() + path.Ext(file.Filename)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, key))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("%w: build upload: %v", domain.ErrUpstreamStorage, err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("%w: build upload: %v", domain.ErrUpstreamStorage, err)
	}
	if c.folder != "" {
		_ = mw.WriteField("folder", c.folder)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: build upload: %v", domain.ErrUpstreamStorage, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamStorage, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: upload returned %d", domain.ErrUpstreamStorage, resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode upload response: %v", domain.ErrUpstreamStorage, err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("%w: upload response missing secure_url", domain.ErrUpstreamStorage)
	}
	return out.SecureURL, nil
}

// Delete removes a stored blob by its URI. Used by the orphan cleanup worker.
func (c *Client) Delete(ctx context.Context, uri string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/blobs?uri="+url.QueryEscape(uri), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamStorage, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: delete returned %d", domain.ErrUpstreamStorage, resp.StatusCode)
	}
	return nil
}
