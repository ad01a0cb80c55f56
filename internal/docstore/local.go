package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore implements Store over a local filesystem layout: a templates
// directory holding the reusable blank templates and an output directory
// with one level of named folders for generated documents.
type LocalStore struct {
	templatesDir string
	outputDir    string
	logger       *zap.Logger
}

// NewLocalStore creates a LocalStore rooted at the given directories.
func NewLocalStore(templatesDir, outputDir string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(templatesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create templates directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &LocalStore{
		templatesDir: templatesDir,
		outputDir:    outputDir,
		logger:       logger,
	}, nil
}

// FetchTemplate reads a template by id. The id is the template's file name.
func (s *LocalStore) FetchTemplate(ctx context.Context, templateID string) ([]byte, error) {
	path, err := s.securePath(s.templatesDir, templateID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}
	if err != nil {
		s.logger.Error("Failed to read template",
			zap.String("template_id", templateID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	s.logger.Debug("Template fetched",
		zap.String("template_id", templateID),
		zap.Int("size", len(data)))
	return data, nil
}

// ListTemplates enumerates the PDF files in the templates directory.
func (s *LocalStore) ListTemplates(ctx context.Context) ([]TemplateInfo, error) {
	entries, err := os.ReadDir(s.templatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates := make([]TemplateInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		templates = append(templates, TemplateInfo{
			ID:   e.Name(),
			Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Size: info.Size(),
		})
	}
	return templates, nil
}

// Persist writes a generated document and returns its reference. The file
// lands in the named folder under the output root, or the root itself when
// folderID is empty.
func (s *LocalStore) Persist(ctx context.Context, folderID, filename string, data []byte) (FileRef, error) {
	rel := filename
	if folderID != "" {
		rel = filepath.Join(folderID, filename)
	}
	path, err := s.securePath(s.outputDir, rel)
	if err != nil {
		return FileRef{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		s.logger.Error("Failed to create output folder",
			zap.String("folder", filepath.Dir(path)),
			zap.Error(err))
		return FileRef{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		s.logger.Error("Failed to write document",
			zap.String("path", path),
			zap.Error(err))
		return FileRef{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Debug("Document persisted",
		zap.String("path", path),
		zap.Int("size", len(data)))
	return FileRef{ID: rel, Path: path}, nil
}

// ListFolders enumerates the named folders under the output root.
func (s *LocalStore) ListFolders(ctx context.Context) ([]FolderInfo, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	folders := make([]FolderInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, FolderInfo{ID: e.Name(), Name: e.Name()})
		}
	}
	return folders, nil
}

// CreateFolder creates a named output folder, nested under parentID when set.
// Creating an existing folder is not an error.
func (s *LocalStore) CreateFolder(ctx context.Context, name, parentID string) (FolderInfo, error) {
	rel := name
	if parentID != "" {
		rel = filepath.Join(parentID, name)
	}
	path, err := s.securePath(s.outputDir, rel)
	if err != nil {
		return FolderInfo{}, err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return FolderInfo{}, fmt.Errorf("failed to create folder: %w", err)
	}
	return FolderInfo{ID: rel, Name: name}, nil
}

// securePath joins rel onto base and rejects paths escaping the base
// directory.
func (s *LocalStore) securePath(base, rel string) (string, error) {
	full := filepath.Join(base, rel)

	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", rel)
	}
	return absFull, nil
}
