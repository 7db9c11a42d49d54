// Package objectstore holds certificate images. Content is addressed by its
// sha256, so uploading the same bytes twice yields the same handle.
package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Handle names stored content: the hex sha256 plus an extension.
type Handle string

// Store uploads content and resolves its public URL. A false result from
// ResolvePublicURL means the content is not visible yet, which is transient.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (Handle, error)
	ResolvePublicURL(ctx context.Context, h Handle) (string, bool, error)
}

var extensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
}

// HandleFor computes the handle data will be stored under.
func HandleFor(data []byte, contentType string) Handle {
	sum := sha256.Sum256(data)
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return Handle(hex.EncodeToString(sum[:]) + extensions[ct])
}
