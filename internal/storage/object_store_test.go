package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	host, ssl, err := splitEndpoint("https://minio.example.com:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "minio.example.com:9000", host)
	assert.True(t, ssl)

	host, ssl, err = splitEndpoint("127.0.0.1:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", host)
	assert.False(t, ssl)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:9000/originals/2024/01/01/a.png",
		publicURL("127.0.0.1:9000", false, "originals", "2024/01/01/a.png"))
	assert.Equal(t, "https://cdn.example.com/thumbs/a.jpg",
		publicURL("https://cdn.example.com/", false, "thumbs", "a.jpg"))
	assert.Empty(t, publicURL("cdn.example.com", true, "thumbs", ""))
}
