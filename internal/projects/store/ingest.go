package store

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rhulha/WebTracker/internal/projects/domain"
)

// Ingest admits and stores one uploaded sample: it validates the filename,
// streams the payload to a temp file to learn its true size (declared sizes
// are untrustworthy), checks the quota, moves the blob into place and
// appends the sample to the record and history. All of that happens under
// the project lock, so two racing uploads can never jointly bust the quota.
//
// On any failure after bytes hit disk the blob is rolled back; a previously
// stored blob with the same name is restored. declaredSize may be <= 0 when
// unknown; when positive it only enables an early reject.
func (s *Store) Ingest(ctx context.Context, id, filename string, r io.Reader, declaredSize int64) (domain.SampleEntry, error) {
	if filename == "" {
		return domain.SampleEntry{}, domain.ErrNoFile
	}
	if !AllowedExtension(filename) {
		return domain.SampleEntry{}, domain.ErrUnsupportedType
	}
	name := SanitizeFilename(filename)
	if name == "" || !AllowedExtension(name) {
		return domain.SampleEntry{}, domain.ErrInvalidInput
	}
	if declaredSize > MaxProjectSize {
		return domain.SampleEntry{}, domain.ErrQuotaExceeded
	}

	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return domain.SampleEntry{}, err
	}
	defer release()

	if _, err := s.readRecord(id); err != nil {
		return domain.SampleEntry{}, err
	}

	dir := s.projectDir(id)
	tmpPath := filepath.Join(dir, ".upload-"+uuid.NewString()+".tmp")
	size, err := spoolUpload(ctx, tmpPath, r)
	if err != nil {
		_ = os.Remove(tmpPath)
		return domain.SampleEntry{}, err
	}

	usage, err := s.usageLocked(ctx, id)
	if err != nil {
		_ = os.Remove(tmpPath)
		return domain.SampleEntry{}, err
	}
	if err := admit(usage, size); err != nil {
		_ = os.Remove(tmpPath)
		return domain.SampleEntry{}, err
	}

	dataPath := filepath.Join(dir, name)
	var oldSize int64
	backupPath := ""
	if info, err := os.Stat(dataPath); err == nil {
		// same name re-uploaded: keep the old blob aside until the metadata
		// append succeeds, then last write wins
		oldSize = info.Size()
		backupPath = filepath.Join(dir, ".replace-"+uuid.NewString()+".tmp")
		if err := os.Rename(dataPath, backupPath); err != nil {
			_ = os.Remove(tmpPath)
			return domain.SampleEntry{}, &domain.StorageError{Op: "stash old blob", Err: err}
		}
	}
	if err := os.Rename(tmpPath, dataPath); err != nil {
		_ = os.Remove(tmpPath)
		if backupPath != "" {
			_ = os.Rename(backupPath, dataPath)
		}
		return domain.SampleEntry{}, &domain.StorageError{Op: "commit blob", Err: err}
	}

	entry := domain.SampleEntry{Filename: name, Uploaded: time.Now().UTC(), Size: size}
	if err := s.appendSampleLocked(id, entry); err != nil {
		// compensate: no blob may exist without its inventory entry
		_ = os.Remove(dataPath)
		if backupPath != "" {
			_ = os.Rename(backupPath, dataPath)
		}
		return domain.SampleEntry{}, err
	}
	if backupPath != "" {
		_ = os.Remove(backupPath)
	}

	s.cache.Set(ctx, id, usage+size-oldSize)
	return entry, nil
}

// spoolUpload streams the payload into a hidden temp file and returns the
// byte count actually read. The temp name keeps it out of quota walks until
// the blob is committed.
func spoolUpload(ctx context.Context, tmpPath string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, &domain.StorageError{Op: "create upload temp", Err: err}
	}
	size, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return 0, &domain.StorageError{Op: "spool upload", Err: err}
	}
	if err := ctx.Err(); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return 0, &domain.StorageError{Op: "sync upload temp", Err: err}
	}
	if err := f.Close(); err != nil {
		return 0, &domain.StorageError{Op: "close upload temp", Err: err}
	}
	return size, nil
}

// SamplePath resolves a stored sample for streaming back to the client.
func (s *Store) SamplePath(id, filename string) (string, error) {
	if !s.Exists(id) {
		return "", domain.ErrProjectNotFound
	}
	name := SanitizeFilename(filename)
	if name == "" || !isSampleBlob(name) {
		return "", domain.ErrSampleNotFound
	}
	p := filepath.Join(s.projectDir(id), name)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrSampleNotFound
		}
		return "", &domain.StorageError{Op: "stat sample", Err: err}
	}
	return p, nil
}
