package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DocumentClient talks to the external document-storage service that hosts
// assignment attachments. The core only needs the resulting URL.
type DocumentClient interface {
	Upload(ctx context.Context, fileContent []byte, fileName string) (*UploadResponse, error)
}

type documentClient struct {
	baseURL        string
	uploadEndpoint string
	retryCount     int
	retryDelay     time.Duration
	client         *http.Client
	logger         zerolog.Logger
}

type UploadResponse struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

func NewDocumentClient(baseURL, uploadEndpoint string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) DocumentClient {
	return &documentClient{
		baseURL:        baseURL,
		uploadEndpoint: uploadEndpoint,
		retryCount:     retryCount,
		retryDelay:     retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *documentClient) Upload(ctx context.Context, fileContent []byte, fileName string) (*UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, bytes.NewReader(fileContent)); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}

	writer.Close()

	body := buf.Bytes()
	contentType := writer.FormDataContentType()

	var resp *http.Response
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Msg("Retrying document upload")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.uploadEndpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, lastErr = c.client.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if resp != nil {
			resp.Body.Close()
			resp = nil
		}
	}

	if resp == nil {
		return nil, fmt.Errorf("failed to upload document after %d attempts: %w", c.retryCount+1, lastErr)
	}
	defer resp.Body.Close()

	var uploadResp UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info().
		Str("url", uploadResp.URL).
		Int64("size", uploadResp.Size).
		Msg("Document uploaded")

	return &uploadResp, nil
}
