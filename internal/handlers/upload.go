package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hmtran/clothes-shop/internal/storage"
)

const maxUploadSize = 5 << 20 // 5 MiB per file

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UploadHandler struct {
	Storage storage.Storage
}

// Upload stores the "images" parts of a multipart form and returns their
// public URLs. Files are renamed to UUIDs so uploads never collide.
func (h *UploadHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no images in form")
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxUploadSize {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is too large", fh.Filename))
		}
		contentType := fh.Header.Get("Content-Type")
		ext, ok := allowedImageTypes[contentType]
		if !ok {
			// Fall back to the extension when the client sent no usable type.
			ext = filepath.Ext(fh.Filename)
			switch ext {
			case ".jpg", ".jpeg":
				contentType = "image/jpeg"
			case ".png":
				contentType = "image/png"
			case ".webp":
				contentType = "image/webp"
			default:
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s: unsupported image type", fh.Filename))
			}
		}

		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
		}
		data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
		src.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
		}
		if len(data) > maxUploadSize {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is too large", fh.Filename))
		}

		name := uuid.NewString() + ext
		url, err := h.Storage.Save(c.Request().Context(), name, contentType, data)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot store upload")
		}
		urls = append(urls, url)
	}

	return c.JSON(http.StatusCreated, map[string]any{"urls": urls})
}
