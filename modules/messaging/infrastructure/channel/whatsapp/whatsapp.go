// Package whatsapp implements channel.Sender against an Evolution API
// compatible WhatsApp gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/channel"
)

type Config struct {
	BaseURL  string
	APIKey   string
	Instance string
	Timeout  time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendMediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	Media     string `json:"media"`
	FileName  string `json:"fileName,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

type sendResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
}

func (c *Client) SendText(ctx context.Context, phone, text string) (channel.SendResult, error) {
	return c.post(ctx, "/message/sendText/", sendTextRequest{
		Number: phone,
		Text:   text,
	})
}

func (c *Client) SendMedia(ctx context.Context, phone string, kind channel.MediaKind, mediaURL, fileName, caption string) (channel.SendResult, error) {
	req := sendMediaRequest{
		Number:    phone,
		MediaType: string(kind),
		Media:     mediaURL,
		FileName:  fileName,
	}
	// The gateway rejects captions on voice notes.
	if kind != channel.MediaAudio {
		req.Caption = caption
	}
	return c.post(ctx, "/message/sendMedia/", req)
}

func (c *Client) post(ctx context.Context, path string, payload any) (channel.SendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return channel.SendResult{}, errors.Wrap(err, "marshal request")
	}

	url := c.cfg.BaseURL + path + c.cfg.Instance
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return channel.SendResult{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return channel.SendResult{}, errors.Wrap(channel.ErrSendFailed, err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return channel.SendResult{}, errors.Wrap(
			channel.ErrSendFailed,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(data)),
		)
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return channel.SendResult{}, errors.Wrap(err, "decode response")
	}
	return channel.SendResult{ExternalMessageID: parsed.Key.ID}, nil
}
