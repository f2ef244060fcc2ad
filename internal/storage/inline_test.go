package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineStoreRoundTrip(t *testing.T) {
	store := NewInlineStore()
	ctx := context.Background()

	url, err := store.Put(ctx, []byte("homework image bytes"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	data, err := store.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("homework image bytes"), data)
}

func TestInlineStoreGetRejectsNonDataURI(t *testing.T) {
	store := NewInlineStore()

	_, err := store.Get(context.Background(), "minio://bucket/key")
	assert.Error(t, err)
}

func TestInlineStorePutDefaultsContentType(t *testing.T) {
	store := NewInlineStore()

	url, err := store.Put(context.Background(), []byte{0x1}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:application/octet-stream;base64,"))
}

func TestParseMinIOURL(t *testing.T) {
	bucket, key, err := parseMinIOURL("minio://homework-images/abc123")
	require.NoError(t, err)
	assert.Equal(t, "homework-images", bucket)
	assert.Equal(t, "abc123", key)

	_, _, err = parseMinIOURL("data:image/png;base64,xxx")
	assert.Error(t, err)

	_, _, err = parseMinIOURL("minio://bucketonly")
	assert.Error(t, err)
}
