package storage

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souqbridge-identity/internal/domain"
)

func content(s string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader([]byte(s))), nil }
}

func newDocs() (*Documents, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewDocumentsFs(fs), fs
}

func TestKey(t *testing.T) {
	assert.Equal(t, "documents/p1/tax_file.pdf", Key("p1", "tax_file", ".PDF"))
}

func TestStageAndPromote(t *testing.T) {
	d, fs := newDocs()
	files := []File{
		{Field: "commercial_registration_file", Ext: ".pdf", Open: content("cr")},
		{Field: "tax_file", Ext: ".png", Open: content("tax")},
	}
	require.NoError(t, d.Stage("attempt-1", files))

	staged, err := afero.ReadFile(fs, "staging/attempt-1/tax_file.png")
	require.NoError(t, err)
	assert.Equal(t, "tax", string(staged))

	require.NoError(t, d.Promote("attempt-1", "profile-1", files))

	got, err := afero.ReadFile(fs, Key("profile-1", "commercial_registration_file", ".pdf"))
	require.NoError(t, err)
	assert.Equal(t, "cr", string(got))
	ok, err := d.Exists(Key("profile-1", "tax_file", ".png"))
	require.NoError(t, err)
	assert.True(t, ok)

	gone, err := afero.DirExists(fs, "staging/attempt-1")
	require.NoError(t, err)
	assert.False(t, gone)
}

func TestStage_FailureLeavesNothing(t *testing.T) {
	d, fs := newDocs()
	err := d.Stage("attempt-2", []File{
		{Field: "commercial_registration_file", Ext: ".pdf", Open: content("cr")},
		{Field: "tax_file", Ext: ".pdf", Open: func() (io.ReadCloser, error) { return nil, errors.New("client went away") }},
	})
	require.Error(t, err)
	exists, _ := afero.DirExists(fs, "staging/attempt-2")
	assert.False(t, exists)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStage_ErrorKinds(t *testing.T) {
	cases := []struct {
		name      string
		fs        afero.Fs
		open      func() (io.ReadCloser, error)
		kind      domain.Kind
		retryable bool
	}{
		{"store read-only", afero.NewReadOnlyFs(afero.NewMemMapFs()), content("cr"), domain.KindStorage, true},
		{"open fails", afero.NewMemMapFs(), func() (io.ReadCloser, error) { return nil, errors.New("gone") }, domain.KindUpload, false},
		{"read fails mid copy", afero.NewMemMapFs(), func() (io.ReadCloser, error) { return io.NopCloser(failingReader{}), nil }, domain.KindUpload, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewDocumentsFs(tc.fs).Stage("attempt-k", []File{{Field: "tax_file", Ext: ".pdf", Open: tc.open}})
			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.kind, de.Kind)
			assert.Equal(t, tc.retryable, de.Retryable)
		})
	}
}

func TestDiscard(t *testing.T) {
	d, fs := newDocs()
	require.NoError(t, d.Stage("attempt-3", []File{{Field: "tax_file", Ext: ".pdf", Open: content("x")}}))
	require.NoError(t, d.Discard("attempt-3"))
	exists, _ := afero.DirExists(fs, "staging/attempt-3")
	assert.False(t, exists)
}

func TestBadIDsRejected(t *testing.T) {
	d, _ := newDocs()
	for _, id := range []string{"", "..", "../x", "a/b"} {
		assert.Error(t, d.Stage(id, nil), id)
		assert.Error(t, d.Promote("ok", id, nil), id)
	}
	ok, err := d.Exists("staging/whatever")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReap(t *testing.T) {
	d, fs := newDocs()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	require.NoError(t, d.Stage("old", []File{{Field: "tax_file", Ext: ".pdf", Open: content("x")}}))
	require.NoError(t, d.Stage("fresh", []File{{Field: "tax_file", Ext: ".pdf", Open: content("y")}}))
	require.NoError(t, fs.Chtimes("staging/old", now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, fs.Chtimes("staging/fresh", now.Add(-time.Minute), now.Add(-time.Minute)))

	n, err := d.Reap(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	oldExists, _ := afero.DirExists(fs, "staging/old")
	freshExists, _ := afero.DirExists(fs, "staging/fresh")
	assert.False(t, oldExists)
	assert.True(t, freshExists)
}

func TestReap_NoStagingDir(t *testing.T) {
	d, _ := newDocs()
	n, err := d.Reap(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewDocuments_OnDisk(t *testing.T) {
	d, err := NewDocuments(t.TempDir())
	require.NoError(t, err)
	files := []File{{Field: "tax_file", Ext: ".pdf", Open: content("on disk")}}
	require.NoError(t, d.Stage("a1", files))
	require.NoError(t, d.Promote("a1", "p1", files))
	ok, err := d.Exists("documents/p1/tax_file.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}
