package checks

import (
	"context"

	"spring-change/core/storage"
)

// BucketReport describes the state of the report bucket.
type BucketReport struct {
	Bucket string `json:"bucket"`
	Exists bool   `json:"exists"`
	Fixed  bool   `json:"fixed,omitempty"`
}

// CheckBucket reports whether the archive bucket exists, creating it when fix is set.
func CheckBucket(ctx context.Context, client storage.Client, bucket string, fix bool) (*BucketReport, error) {
	report := &BucketReport{Bucket: bucket}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	report.Exists = exists

	if !exists && fix {
		if err := storage.NewArchive(client, bucket, "").EnsureBucket(ctx); err != nil {
			return nil, err
		}
		report.Exists, report.Fixed = true, true
	}
	return report, nil
}
