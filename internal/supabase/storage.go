package supabase

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// StorageClient archives exported SQL files in a Supabase Storage bucket
// under users/{user_id}/projects/{project_id}/.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, key, bucket string) *StorageClient {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	return &StorageClient{
		client:  storage.NewClient(baseURL+"/storage/v1", key, nil),
		bucket:  bucket,
		baseURL: baseURL,
	}
}

func projectPrefix(userID, projectID uuid.UUID) string {
	return fmt.Sprintf("users/%s/projects/%s/", userID.String(), projectID.String())
}

// Archive uploads content, replacing any earlier export of the same file,
// and returns its public URL.
func (s *StorageClient) Archive(ctx context.Context, userID, projectID uuid.UUID, fileName string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	storagePath := projectPrefix(userID, projectID) + path.Base(fileName)

	contentType := "text/plain; charset=utf-8"
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(content), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.PublicURL(storagePath), nil
}

func (s *StorageClient) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

// RemoveProject deletes every archived export of a project.
func (s *StorageClient) RemoveProject(ctx context.Context, userID, projectID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := projectPrefix(userID, projectID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	// Listed names are relative to the prefix.
	filePaths := make([]string, len(files))
	for i, file := range files {
		filePaths[i] = prefix + file.Name
	}
	if _, err := s.client.RemoveFile(s.bucket, filePaths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}
