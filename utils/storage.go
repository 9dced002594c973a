package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/disintegration/imaging"
	"google.golang.org/api/option"
)

const MaxUploadSizeBytes = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// getGoogleClient prefers GCS_CREDENTIALS_JSON and otherwise falls back to ADC.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func gcsBucket() (string, error) {
	bucketName := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucketName == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	return bucketName, nil
}

// DetectImageType sniffs the content type and rejects anything but jpeg/png/webp.
func DetectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	if len(data) > MaxUploadSizeBytes {
		return "", errors.New("file size exceeds 5MB limit")
	}
	mimeType := http.DetectContentType(data)
	if !allowedImageTypes[mimeType] {
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
	return mimeType, nil
}

func UploadBytesToGCS(ctx context.Context, objectName string, data []byte, contentType string) error {
	bucketName, err := gcsBucket()
	if err != nil {
		return err
	}
	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to upload bytes to Google Cloud Storage: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// DeleteFromGCS removes an object; a missing object is not an error.
func DeleteFromGCS(ctx context.Context, objectName string) error {
	bucketName, err := gcsBucket()
	if err != nil {
		return err
	}
	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Bucket(bucketName).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// MakeThumbnail resizes an image to 200px wide, keeping the aspect ratio, as JPEG.
func MakeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	t := imaging.Resize(img, 200, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, t, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ThumbnailKey places the thumbnail next to the original under "thumbnails/".
func ThumbnailKey(objectKey string) string {
	dir, file := path.Split(objectKey)
	base := strings.TrimSuffix(file, path.Ext(file))
	return path.Join(dir, "thumbnails", base+".jpg")
}

// StoreImageWithThumbnail uploads the original and its thumbnail and returns both keys.
func StoreImageWithThumbnail(ctx context.Context, objectKey string, data []byte) (string, string, error) {
	contentType, err := DetectImageType(data)
	if err != nil {
		return "", "", err
	}
	thumb, err := MakeThumbnail(data)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate thumbnail: %w", err)
	}
	if err := UploadBytesToGCS(ctx, objectKey, data, contentType); err != nil {
		return "", "", err
	}
	thumbKey := ThumbnailKey(objectKey)
	if err := UploadBytesToGCS(ctx, thumbKey, thumb, "image/jpeg"); err != nil {
		return "", "", err
	}
	return objectKey, thumbKey, nil
}
