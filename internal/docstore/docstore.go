// Package docstore is the template/document store collaborator: it supplies
// blank template bytes and persists generated documents into named folders.
package docstore

import (
	"context"
	"errors"
)

// FileRef identifies a persisted document.
type FileRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// TemplateInfo describes one stored template.
type TemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// FolderInfo describes one output folder.
type FolderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store abstracts template retrieval and document persistence.
type Store interface {
	// FetchTemplate returns the raw bytes of a stored template.
	FetchTemplate(ctx context.Context, templateID string) ([]byte, error)

	// ListTemplates enumerates the available templates.
	ListTemplates(ctx context.Context) ([]TemplateInfo, error)

	// Persist writes a generated document under the given folder (root when
	// folderID is empty) and returns a reference to it.
	Persist(ctx context.Context, folderID, filename string, data []byte) (FileRef, error)

	// ListFolders enumerates the output folders.
	ListFolders(ctx context.Context) ([]FolderInfo, error)

	// CreateFolder creates a named folder, optionally under a parent.
	CreateFolder(ctx context.Context, name, parentID string) (FolderInfo, error)
}

var (
	// ErrTemplateNotFound signals that no template exists under the given id.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrStorageFailure signals that a document could not be persisted.
	ErrStorageFailure = errors.New("failed to persist document")
)
