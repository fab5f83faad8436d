package statement

import (
	"context"
	"time"
)

// ObjectInfo describes a stored artifact.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// BlobStorage is the durable object store holding rendered documents and
// the HTML templates they are produced from.
type BlobStorage interface {
	// Upload writes data at the key with the given content type.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// SetMetadata replaces the object's content type and custom metadata.
	SetMetadata(ctx context.Context, key, contentType string, metadata map[string]string) error
	// Download reads the object's full contents.
	Download(ctx context.Context, key string) ([]byte, error)
	// List returns every object under the key prefix with its recorded size.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Head returns one object's size and metadata.
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// PresignDownload returns a time-limited download URL for the object.
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}

// TemplateSource resolves a statement template by file name.
type TemplateSource interface {
	Template(ctx context.Context, name string) (string, error)
}

// HTMLRenderer applies a template source to a statement payload.
type HTMLRenderer interface {
	Render(name, source string, data interface{}) (string, error)
}

// PDFEngine converts rendered HTML into a PDF byte buffer.
type PDFEngine interface {
	RenderPDF(ctx context.Context, html, title string) ([]byte, error)
}
