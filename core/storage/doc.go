// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface, which supports both
// AWS S3 and self-hosted MinIO instances and can be mocked in unit tests
// (see core/storage/mocks).
//
// # Report Archive
//
// Archive builds on Client to keep exported reconciliation workbooks under a
// common prefix, one object per run:
//
//	reports/<run id>.xlsx
//
// It can create the bucket on first use, upload and download reports, list the
// archived run ids and remove a report.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage.Bucket, cfg.Storage.ReportPrefix)
//	key, err := archive.Put(ctx, runID, data)
package storage
