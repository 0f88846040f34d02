package handler

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"zamahub/internal/storage"
)

// ServeUpload streams a stored profile picture from whichever backend is configured.
// Mounted at /uploads/*.
func ServeUpload(store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		}
		rc, info, err := store.Get(c.UserContext(), raw)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.ETag != "" {
			c.Set(fiber.HeaderETag, strconv.Quote(info.ETag))
		}
		// Names are never reused, so the bytes behind a URL never change.
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		return c.SendStream(rc, int(info.Size))
	}
}
