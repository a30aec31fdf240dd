// Package storage keeps deliverable files on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/config"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// Store puts and fetches opaque objects by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Name() string
}

// New returns S3 when credentials and bucket are configured, local disk otherwise.
func New(cfg *config.Config, log *zap.Logger) (Store, error) {
	if cfg.S3Enabled() {
		s, err := NewS3(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.S3Bucket)
		if err != nil {
			return nil, err
		}
		log.Info("deliverables stored in s3", zap.String("bucket", cfg.S3Bucket))
		return s, nil
	}
	log.Info("deliverables stored on local disk", zap.String("dir", cfg.UploadDir))
	return NewLocal(cfg.UploadDir)
}

// Key builds <jobId>/<deliverableId>/<filename> with the file name reduced to its base.
func Key(jobID, deliverableID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		base = "file"
	}
	return jobID + "/" + deliverableID + "/" + base
}
