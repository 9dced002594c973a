package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/sirupsen/logrus"
)

// multipart framing on top of the file itself
const maxUploadBodyBytes = utils.MaxUploadSizeBytes + 64<<10

type vehiclePhotoResponse struct {
	GatePass           *models.GatePass `json:"gate_pass"`
	ObjectKey          string           `json:"objectKey"`
	ThumbnailObjectKey string           `json:"thumbnailObjectKey"`
}

// vehiclePhotoHandler stores the uploaded image and its thumbnail and records the object
// key on the pass. The "file" form field carries the image.
func vehiclePhotoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		requestID := requestIDFromHeaders(c)
		ctx := c.Request.Context()
		name := c.Param("name")

		businessId, ok := utils.GetBusinessIdFromContext(ctx)
		if !ok || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		engine := gatePassEngine()
		// fail before uploading when the pass is missing or unreadable
		if _, err := engine.Get(ctx, name); err != nil {
			writeError(c, "vehiclePhotoHandler", err)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBodyBytes)
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fh.Size > utils.MaxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
			return
		}
		mimeType, err := utils.DetectImageType(data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		objectKey := path.Join(businessId, "gate-passes", uuid.New().String()+extensionFromMimeType(mimeType))
		origKey, thumbKey, err := utils.StoreImageWithThumbnail(ctx, objectKey, data)
		if err != nil {
			logUploadError(logger, err, name, requestID)
			message := "failed to store vehicle photo"
			if !strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
				message = fmt.Sprintf("failed to store vehicle photo: %v", err)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": message})
			return
		}

		gp, err := engine.SetVehiclePhoto(ctx, name, origKey)
		if err != nil {
			for _, key := range []string{origKey, thumbKey} {
				if delErr := utils.DeleteFromGCS(ctx, key); delErr != nil {
					logUploadError(logger, delErr, name, requestID)
				}
			}
			writeError(c, "vehiclePhotoHandler", err)
			return
		}
		c.JSON(http.StatusOK, vehiclePhotoResponse{GatePass: gp, ObjectKey: origKey, ThumbnailObjectKey: thumbKey})
	}
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ""
}

func logUploadError(logger *logrus.Logger, err error, gatePass string, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"gate_pass":  gatePass,
		"request_id": requestID,
	}).Error("[upload.error]")
}

func requestIDFromHeaders(c *gin.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok && id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-Request-Id")); id != "" {
		return id
	}
	return fmt.Sprintf("upload-%d", time.Now().UnixNano())
}
