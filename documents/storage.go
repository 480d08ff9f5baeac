package documents

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	ierr "github.com/satheeshds/portal/errors"
)

// Document describes one stored file of a client.
type Document struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Storage lists and opens the documents kept for a client.
type Storage interface {
	List(ctx context.Context, clientID string) ([]Document, error)
	// Open returns the content of one document. The caller closes it.
	Open(ctx context.Context, clientID, name string) (io.ReadCloser, error)
}

// validName rejects names that would escape the client's folder.
func validName(kind, name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ierr.NewError("invalid "+kind).
			WithHintf("invalid %s %q", kind, name).
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// DirStorage keeps documents on local disk as <root>/<clientID>/<name>.
type DirStorage struct {
	root string
}

func NewDirStorage(root string) *DirStorage {
	return &DirStorage{root: root}
}

func (s *DirStorage) List(_ context.Context, clientID string) ([]Document, error) {
	if err := validName("client id", clientID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, clientID))
	if os.IsNotExist(err) {
		return []Document{}, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("documents are temporarily unavailable").
			Mark(ierr.ErrSystem)
	}

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, Document{Name: e.Name(), Size: info.Size(), ModifiedAt: info.ModTime().UTC()})
	}
	slices.SortFunc(docs, func(a, b Document) int { return strings.Compare(a.Name, b.Name) })
	return docs, nil
}

func (s *DirStorage) Open(_ context.Context, clientID, name string) (io.ReadCloser, error) {
	if err := validName("client id", clientID); err != nil {
		return nil, err
	}
	if err := validName("document name", name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, clientID, name))
	if os.IsNotExist(err) {
		return nil, ierr.WithError(err).
			WithHintf("document %s not found", name).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("documents are temporarily unavailable").
			Mark(ierr.ErrSystem)
	}
	return f, nil
}
