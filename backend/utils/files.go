package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Upload categories map to subdirectories of the upload root.
const (
	UploadProfile     = "profile"
	UploadContents    = "contents"
	UploadSubmissions = "submissions"
)

// UploadFilename builds a name from the upload time plus a short random
// component, keeping the original extension. The random part prevents
// collisions between uploads landing on the same millisecond.
func UploadFilename(original string) string {
	ext := filepath.Ext(original)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

// SaveUpload writes the multipart file into the given category directory
// and returns the public /uploads path recorded in the database.
func SaveUpload(c *fiber.Ctx, file *multipart.FileHeader, uploadDir, category string) (string, error) {
	dir := filepath.Join(uploadDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := UploadFilename(file.Filename)
	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return "", err
	}

	return "/uploads/" + category + "/" + name, nil
}
