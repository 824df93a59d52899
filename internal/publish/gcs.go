package publish

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
)

// GCSUploader writes objects into one Google Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader creates a client using application default credentials.
func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage client")
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, object, contentType string, r io.Reader) error {
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return errors.Wrapf(err, "writing gs://%s/%s", u.bucket, object)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "finalizing gs://%s/%s", u.bucket, object)
	}
	return nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
