package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"clipway/pkg/config"
)

// CloudinaryClient uploads media as multipart form content to a preset-backed
// upload endpoint. The preset name and API key come from server-side config;
// credentials are never embedded in client code.
type CloudinaryClient struct {
	endpoint   string
	cloud      string
	preset     string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinaryClient(cfg *config.Config) *CloudinaryClient {
	return &CloudinaryClient{
		endpoint:  cfg.CloudinaryURL,
		cloud:     cfg.CloudinaryCloud,
		preset:    cfg.CloudinaryPreset,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *CloudinaryClient) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string, progress ProgressFunc) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", key)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_ = writer.WriteField("upload_preset", c.preset)
	_ = writer.WriteField("cloud_name", c.cloud)
	_ = writer.WriteField("api_key", c.apiKey)

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	total := int64(body.Len())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL(), newProgressReader(body, total, progress))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ContentLength = total

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result cloudinaryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}

	// An application-level error can arrive inside a 200 response.
	if result.Error != nil {
		return "", fmt.Errorf("upload rejected: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}

	return result.SecureURL, nil
}

// DeleteFile destroys an uploaded asset through the signed destroy endpoint.
// Preset uploads need no secret; deletion does.
func (c *CloudinaryClient) DeleteFile(ctx context.Context, key string) error {
	if c.apiSecret == "" {
		return fmt.Errorf("cloudinary api secret not configured, cannot delete %s", key)
	}

	publicID := strings.TrimSuffix(key, filepath.Ext(key))
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(
		fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, c.apiSecret),
	)))

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("api_key", c.apiKey)
	form.Set("signature", signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.destroyURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("destroy request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read destroy response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("destroy failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse destroy response: %w", err)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("destroy rejected: %s", result.Result)
	}
	return nil
}

func (c *CloudinaryClient) uploadURL() string {
	return fmt.Sprintf("%s/%s/video/upload", c.endpoint, c.cloud)
}

func (c *CloudinaryClient) destroyURL() string {
	return fmt.Sprintf("%s/%s/video/destroy", c.endpoint, c.cloud)
}
