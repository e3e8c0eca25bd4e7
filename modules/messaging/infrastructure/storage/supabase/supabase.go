// Package supabase implements attachment.Storage against the Supabase
// Storage HTTP API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

type Config struct {
	ProjectURL   string
	ServiceKey   string
	Bucket       string
	SignedURLTTL time.Duration
}

type Storage struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Storage {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 24 * time.Hour
	}
	return &Storage{
		cfg:  cfg,
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Storage) Put(ctx context.Context, path string, data []byte, contentType string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.cfg.ProjectURL, s.cfg.Bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "upload object")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("upload object: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

func (s *Storage) SignedURL(ctx context.Context, path string) (string, error) {
	payload, err := json.Marshal(signRequest{ExpiresIn: int(s.cfg.SignedURLTTL.Seconds())})
	if err != nil {
		return "", errors.Wrap(err, "marshal sign request")
	}

	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.cfg.ProjectURL, s.cfg.Bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build sign request")
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "sign object")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", errors.Errorf("sign object: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed signResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "decode sign response")
	}
	return s.cfg.ProjectURL + "/storage/v1" + parsed.SignedURL, nil
}
