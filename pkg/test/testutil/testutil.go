package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func Context(t *testing.T) context.Context {
	return logging.WithLogger(t.Context(), zaptest.NewLogger(t).Sugar())
}

// WriteFile creates a file with the specified contents in a temporary directory owned by the test.
func WriteFile(t *testing.T, name string, data string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func ReadFile(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
