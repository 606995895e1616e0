// Package multifile implements the multi-file read orchestrator: it
// expands a bucket's matching file set into a concatenated pipeline, with
// optional sharding and optional parallel download-first staging (spec
// §4.G).
package multifile

import (
	"io"
	"regexp"
)

// FileMeta is opaque to the orchestrator beyond name and size, per §6.
type FileMeta struct {
	Name string
	Size int64
}

// SizedReadCloser is a readable stream with a known total size, as
// returned by Bucket.GetAsStream.
type SizedReadCloser interface {
	io.ReadCloser
	Size() int64
}

// Bucket is the external object-storage collaborator contract (spec §6):
// GCS, S3, and local-filesystem connectors all satisfy it. The orchestrator
// treats every bucket implementation identically.
type Bucket interface {
	ListFiles(prefix string, filter *regexp.Regexp) ([]FileMeta, error)
	GetAsStream(FileMeta) (SizedReadCloser, error)
	DownloadTo(meta FileMeta, localPath string) error
}
