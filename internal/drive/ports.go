// Package drive defines the remote file storage the workbook is
// synchronized to.
package drive

import (
	"context"
	"errors"
	"time"
)

const (
	XLSXMimeType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FolderMimeType = "application/vnd.google-apps.folder"
)

var ErrFileNotFound = errors.New("remote file not found")

// File describes a stored file.
type File struct {
	ID           string
	Name         string
	ModifiedTime time.Time
}

// Ports for outbound adapters.
type (
	FolderEnsurer interface {
		// EnsureFolder returns the id of the folder called name, creating it
		// when it does not exist.
		EnsureFolder(ctx context.Context, name string) (string, error)
	}

	FileStore interface {
		// Stat returns ErrFileNotFound when id does not exist or was trashed.
		Stat(ctx context.Context, id string) (File, error)
		Download(ctx context.Context, id string) ([]byte, error)
		// Upload replaces the content of id, or creates the file inside
		// folderID when id is empty.
		Upload(ctx context.Context, folderID, id, name string, data []byte) (File, error)
	}

	Sharer interface {
		// ShareLink makes id readable by link and returns that link.
		ShareLink(ctx context.Context, id string) (string, error)
	}

	Remote interface {
		FolderEnsurer
		FileStore
		Sharer
	}
)
