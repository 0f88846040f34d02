package storage

import (
	"mime"
	"net/http"
	"path"
)

// contentTypeFor prefers the extension's registered type and falls back to sniffing.
func contentTypeFor(key string, head []byte) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return http.DetectContentType(head)
}
