package ports

import "context"

// UploadFile is a raw file received from the caller, not yet stored anywhere.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BlobUploader is the external blob-storage collaborator. Upload stores one
// file and returns its stable URI. Delete is best-effort removal, used by the
// orphan cleanup worker.
type BlobUploader interface {
	Upload(ctx context.Context, file UploadFile) (string, error)
	Delete(ctx context.Context, uri string) error
}
