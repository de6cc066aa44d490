// Package objectstore uploads complaint evidence and returns public URLs.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Store is a blob store addressed by slash-separated paths.
type Store interface {
	Upload(ctx context.Context, path, contentType string, r io.Reader) (publicURL string, err error)
	Delete(ctx context.Context, path string) error
}

// EvidencePath returns "{trackingID}/{subID}.{ext}".
func EvidencePath(trackingID, subID, ext string) string {
	return fmt.Sprintf("%s/%s.%s", trackingID, subID, strings.TrimPrefix(ext, "."))
}

// PathFromURL recovers the object path from a public URL issued under baseURL.
func PathFromURL(baseURL, publicURL string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}
