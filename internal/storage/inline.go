package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// InlineStore encodes the image into the URL itself as a data URI. This is
// the storage mode of the previous system, kept for single-node deployments
// and tests; the URL grows with the image, so production uses MinIO.
type InlineStore struct{}

func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

func (s *InlineStore) Put(_ context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}

func (s *InlineStore) Get(_ context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "data:") {
		return nil, fmt.Errorf("not a data URI: %.32q", url)
	}

	idx := strings.Index(url, ",")
	if idx < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}

	meta := url[len("data:"):idx]
	payload := url[idx+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}

	return data, nil
}

func (s *InlineStore) Delete(_ context.Context, _ string) error {
	// nothing stored outside the URL
	return nil
}
