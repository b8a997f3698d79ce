package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepFile_AddUpdateRemove(t *testing.T) {
	f := &RepFile{Version: "1"}

	require.NoError(t, f.Add(RepRecord{Code: " Ana ", Name: "Ana Lopez", Email: "ana@example.com"}))
	assert.Equal(t, "ana", f.Reps[0].Code)

	assert.EqualError(t, f.Add(RepRecord{Code: "ANA", Name: "Other", Email: "o@example.com"}), "rep with code ana already exists")
	assert.EqualError(t, f.Add(RepRecord{Code: "  "}), "code is required")

	require.NoError(t, f.Update("ana", "email", " ana.lopez@example.com "))
	assert.Equal(t, "ana.lopez@example.com", f.Reps[0].Email)
	assert.EqualError(t, f.Update("ana", "phone", "x"), "unknown field: phone")
	assert.EqualError(t, f.Update("zed", "name", "x"), "rep with code zed not found")

	require.NoError(t, f.Remove("ANA"))
	assert.Empty(t, f.Reps)
}

func TestSaveRepFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "reps.yaml")

	_, err := ReadRepFile(path)
	assert.True(t, os.IsNotExist(err))

	f := &RepFile{Version: "1"}
	require.NoError(t, f.Add(RepRecord{Code: "ana", Name: "Ana Lopez", Email: "ana@example.com"}))
	require.NoError(t, SaveRepFile(path, f))

	dir, err := LoadRegistry(path)
	require.NoError(t, err)
	rep, ok := dir.Lookup("ana")
	require.True(t, ok)
	assert.Equal(t, "Ana Lopez", rep.Name)

	reread, err := ReadRepFile(path)
	require.NoError(t, err)
	assert.Equal(t, f, reread)
}

func TestSaveRepFile_RejectsInvalidDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reps.yaml")
	f := &RepFile{Version: "1", Reps: []RepRecord{{Code: "ana", Name: "Ana Lopez", Email: "not-an-email"}}}

	err := SaveRepFile(path, f)

	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
