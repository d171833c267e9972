// Package storage keeps seller documents. Uploads land in a per-attempt
// staging directory and are moved under documents/ only after the account
// row has committed.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"souqbridge-identity/internal/domain"
)

const (
	stagingDir   = "staging"
	documentsDir = "documents"
)

// File is the minimal upload shape the store needs.
type File struct {
	Field string
	Ext   string
	Open  func() (io.ReadCloser, error)
}

type Documents struct {
	fs  afero.Fs
	now func() time.Time
}

// NewDocuments stores under root on the OS filesystem.
func NewDocuments(root string) (*Documents, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}
	return NewDocumentsFs(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func NewDocumentsFs(fs afero.Fs) *Documents {
	return &Documents{fs: fs, now: time.Now}
}

// Key is the permanent location of a profile's document.
func Key(profileID, field, ext string) string {
	return path.Join(documentsDir, profileID, field+strings.ToLower(ext))
}

func stagedPath(attemptID, field, ext string) string {
	return path.Join(stagingDir, attemptID, field+strings.ToLower(ext))
}

// Stage copies every file into staging/<attemptID>/. On error nothing from
// this attempt is left behind. A part that cannot be read is an Upload error;
// a store that cannot be written is a retryable Storage error.
func (d *Documents) Stage(attemptID string, files []File) (err error) {
	if !safeSegment(attemptID) {
		return domain.Storage("could not store documents", fmt.Errorf("storage: bad attempt id %q", attemptID))
	}
	defer func() {
		if err != nil {
			_ = d.Discard(attemptID)
		}
	}()
	if err = d.fs.MkdirAll(path.Join(stagingDir, attemptID), 0o750); err != nil {
		return errStoreDown(err)
	}
	for _, f := range files {
		if err = d.stageOne(attemptID, f); err != nil {
			return err
		}
	}
	return nil
}

func (d *Documents) stageOne(attemptID string, f File) error {
	rc, err := f.Open()
	if err != nil {
		return errUnreadable(f.Field, err)
	}
	defer rc.Close()
	src := &sourceReader{r: rc}
	if err := afero.WriteReader(d.fs, stagedPath(attemptID, f.Field, f.Ext), src); err != nil {
		if src.err != nil {
			return errUnreadable(f.Field, src.err)
		}
		return errStoreDown(fmt.Errorf("stage %s: %w", f.Field, err))
	}
	return nil
}

// sourceReader remembers a read failure so it is not blamed on the store.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}

func errUnreadable(field string, err error) error {
	return &domain.Error{Kind: domain.KindUpload, Msg: field + ": file is unreadable", Err: err}
}

func errStoreDown(err error) error {
	return domain.StorageRetryable("document store unavailable", err)
}

// Promote moves the staged files of attemptID to their permanent keys under
// profileID and removes the staging directory.
func (d *Documents) Promote(attemptID, profileID string, files []File) error {
	if !safeSegment(attemptID) || !safeSegment(profileID) {
		return fmt.Errorf("storage: bad id")
	}
	if err := d.fs.MkdirAll(path.Join(documentsDir, profileID), 0o750); err != nil {
		return err
	}
	for _, f := range files {
		if err := d.fs.Rename(stagedPath(attemptID, f.Field, f.Ext), Key(profileID, f.Field, f.Ext)); err != nil {
			return fmt.Errorf("storage: promote %s: %w", f.Field, err)
		}
	}
	return d.Discard(attemptID)
}

// Discard drops everything staged for attemptID.
func (d *Documents) Discard(attemptID string) error {
	if !safeSegment(attemptID) {
		return nil
	}
	return d.fs.RemoveAll(path.Join(stagingDir, attemptID))
}

// Exists reports whether a permanent document is present.
func (d *Documents) Exists(key string) (bool, error) {
	if !strings.HasPrefix(key, documentsDir+"/") {
		return false, nil
	}
	return afero.Exists(d.fs, key)
}

// Reap removes staging directories last modified before now-ttl and returns
// how many were removed.
func (d *Documents) Reap(ttl time.Duration) (int, error) {
	entries, err := afero.ReadDir(d.fs, stagingDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	cutoff := d.now().Add(-ttl)
	n := 0
	for _, e := range entries {
		if !e.ModTime().Before(cutoff) {
			continue
		}
		if err := d.fs.RemoveAll(path.Join(stagingDir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// RunReaper calls Reap every interval until ctx is done.
func (d *Documents) RunReaper(ctx context.Context, interval, ttl time.Duration, log *zap.Logger) error {
	if interval <= 0 {
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := d.Reap(ttl)
			if err != nil {
				log.Warn("staging reap failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("staging reaped", zap.Int("removed", n))
			}
		}
	}
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && filepath.Base(s) == s
}
