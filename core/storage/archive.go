package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
)

// XLSXContentType is the MIME type of archived workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	// ErrInvalidReportID is returned for ids that would escape the report prefix.
	ErrInvalidReportID = errors.New("invalid report id")
	// ErrReportNotFound is returned when no report is archived under an id.
	ErrReportNotFound = errors.New("report not found")
)

// Archive stores exported reports as objects under a common prefix.
type Archive struct {
	client Client
	bucket string
	prefix string
}

// NewArchive creates an archive writing to bucket under prefix.
func NewArchive(client Client, bucket, prefix string) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object name for a report id.
func (a *Archive) Key(id string) string {
	if a.prefix == "" {
		return id + ".xlsx"
	}
	return path.Join(a.prefix, id+".xlsx")
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// ValidID reports whether id can be used as a report object name.
func ValidID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\") && !strings.Contains(id, "..")
}

// Put uploads a report and returns its object name.
func (a *Archive) Put(ctx context.Context, id string, data []byte) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReportID, id)
	}
	key := a.Key(id)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: XLSXContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return key, nil
}

// Get downloads a previously archived report.
// A missing object maps to ErrReportNotFound whether minio reports it on open or on read.
func (a *Archive) Get(ctx context.Context, id string) ([]byte, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReportID, id)
	}
	key := a.Key(id)
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, key)
		}
		return nil, fmt.Errorf("failed to fetch report %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, key)
		}
		return nil, fmt.Errorf("failed to read report %s: %w", key, err)
	}
	return data, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// List returns the ids of all archived reports.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if a.prefix != "" {
		opts.Prefix = a.prefix + "/"
	}

	var ids []string
	for obj := range a.client.ListObjects(ctx, a.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, opts.Prefix)
		if !strings.HasSuffix(name, ".xlsx") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".xlsx"))
	}
	return ids, nil
}

// Remove deletes an archived report.
func (a *Archive) Remove(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidReportID, id)
	}
	key := a.Key(id)
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove report %s: %w", key, err)
	}
	return nil
}
