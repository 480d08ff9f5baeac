package documents

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	ierr "github.com/satheeshds/portal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStorage(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cli_1", "archive"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cli_1", "itr-2024.txt"), []byte("acknowledgement"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cli_1", "gst-march.txt"), []byte("return"), 0o644))

	s := NewDirStorage(root)

	t.Run("list skips folders and sorts by name", func(t *testing.T) {
		docs, err := s.List(ctx, "cli_1")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "gst-march.txt", docs[0].Name)
		assert.Equal(t, "itr-2024.txt", docs[1].Name)
		assert.Equal(t, int64(len("acknowledgement")), docs[1].Size)
	})

	t.Run("unknown client has no documents", func(t *testing.T) {
		docs, err := s.List(ctx, "cli_none")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("open", func(t *testing.T) {
		rc, err := s.Open(ctx, "cli_1", "itr-2024.txt")
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "acknowledgement", string(body))
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := s.Open(ctx, "cli_1", "nope.pdf")
		assert.True(t, ierr.IsNotFound(err))
	})

	t.Run("path traversal is rejected", func(t *testing.T) {
		_, err := s.Open(ctx, "cli_1", "../cli_2/secret.pdf")
		assert.True(t, ierr.IsInvalidArgument(err))
		_, err = s.List(ctx, "..")
		assert.True(t, ierr.IsInvalidArgument(err))
	})
}
