package supabase_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-generator-backend/internal/supabase"
)

func TestStorageClient_GetPublicURL(t *testing.T) {
	client, err := supabase.NewStorageClient("https://project.supabase.co/", "service-key", "catalog-assets")
	require.NoError(t, err)

	url := client.GetPublicURL("logos/abc/logo_0.png")
	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/catalog-assets/logos/abc/logo_0.png", url)
}

func TestStoragePathFormat(t *testing.T) {
	jobID := uuid.New()
	expectedPath := "logos/" + jobID.String() + "/logo_0.png"

	assert.Contains(t, expectedPath, "logos/")
	assert.Contains(t, expectedPath, jobID.String())
}

func TestUploadLogo_RequiresLiveBucket(t *testing.T) {
	t.Skip("Requires a Supabase storage bucket")
}
