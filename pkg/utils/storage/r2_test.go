package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("Floor Plan.PDF", "users", "Jane Doe", "documents")

	assert.True(t, strings.HasPrefix(key, "users/jane-doe/documents/"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)
	assert.NotEqual(t, key, ObjectKey("Floor Plan.PDF", "users", "Jane Doe", "documents"))
}

func TestObjectKeySkipsEmptyFolders(t *testing.T) {
	key := ObjectKey("a.png", "", "properties")
	assert.True(t, strings.HasPrefix(key, "properties/"), key)
}

func TestPublicURLRoundTrip(t *testing.T) {
	url := PublicURL("https://cdn.example.com/", "properties/1/images/x.webp")
	assert.Equal(t, "https://cdn.example.com/properties/1/images/x.webp", url)
	assert.Equal(t, "properties/1/images/x.webp", KeyFromURL("https://cdn.example.com", url))
}
