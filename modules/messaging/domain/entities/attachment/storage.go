package attachment

import "context"

// Storage persists raw attachment bytes outside the database.
type Storage interface {
	// Put writes data at path with the given content type. Paths are
	// opaque object keys, the caller decides the layout.
	Put(ctx context.Context, path string, data []byte, contentType string) error

	// SignedURL returns a time-limited download URL for a stored object.
	SignedURL(ctx context.Context, path string) (string, error)
}
