package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "BioVault API", doc.Info.Title)
	for _, path := range []string{
		"/api/users",
		"/api/users/login",
		"/api/users/{address}",
		"/api/users/protected-data",
		"/health",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "missing path %s", path)
	}

	protected := doc.Paths.Find("/api/users/protected-data")
	require.NotNil(t, protected.Get)
	assert.Contains(t, protected.Get.Responses.Map(), "403")
}
