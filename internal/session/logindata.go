package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/neteasedesktop/shell/errors"
)

// Status summarizes the state of the login-data directory.
type Status string

const (
	StatusNoData  Status = "no_data"
	StatusEmpty   Status = "empty"
	StatusHasData Status = "has_data"
	StatusError   Status = "error"
)

// criticalFiles are the profile files a logged-in session is expected to
// carry. Their absence does not invalidate the data, it only warrants a
// warning; the toolkit may rename them between versions.
var criticalFiles = []string{"Cookies", "Web Data", "Local Storage"}

// tinyFileThreshold flags files small enough to be truncated leftovers.
const tinyFileThreshold = 100

// FileRecord describes one regular file inside the login-data directory.
type FileRecord struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Info is a snapshot of the login-data directory contents.
type Info struct {
	Status    Status       `json:"status"`
	Path      string       `json:"path"`
	Files     []FileRecord `json:"files"`
	TotalSize int64        `json:"total_size"`
	FileCount int          `json:"file_count"`
	Error     string       `json:"error,omitempty"`
}

// LoginDataInfo scans the login-data directory. Only regular files at the
// top level count toward the status; subdirectories (like "Local Storage")
// are left to the toolkit.
func (s *Store) LoginDataInfo() Info {
	path := s.LoginDataPath()
	info := Info{Status: StatusNoData, Path: path, Files: []FileRecord{}}

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return info
		}
		info.Status = StatusError
		info.Error = err.Error()
		return info
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		info.Files = append(info.Files, FileRecord{
			Name:     entry.Name(),
			Path:     filepath.Join(path, entry.Name()),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
		info.TotalSize += fi.Size()
	}
	info.FileCount = len(info.Files)
	if info.FileCount > 0 {
		info.Status = StatusHasData
	} else {
		info.Status = StatusEmpty
	}
	return info
}

// ValidateLoginData reports whether the stored login data is usable: at
// least one file with content. Missing critical files and suspiciously
// small files are logged as warnings but never fail validation.
func (s *Store) ValidateLoginData() bool {
	info := s.LoginDataInfo()

	switch info.Status {
	case StatusNoData:
		s.logger.Warn("Login data directory does not exist")
		return false
	case StatusEmpty:
		s.logger.Warn("Login data directory is empty")
		return false
	case StatusError:
		s.logger.WithField("error", info.Error).Error("Failed to scan login data")
		return false
	}

	existing := make(map[string]bool, len(info.Files))
	for _, f := range info.Files {
		existing[f.Name] = true
	}
	var missing []string
	for _, name := range criticalFiles {
		if !existing[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		s.logger.WithField("files", missing).Warn("Missing critical login files")
	}

	var tiny []string
	for _, f := range info.Files {
		if f.Size < tinyFileThreshold {
			tiny = append(tiny, f.Name)
		}
	}
	if len(tiny) > 0 {
		s.logger.WithField("files", tiny).Warn("Found suspiciously small login files")
	}

	validCount := 0
	for _, f := range info.Files {
		if f.Size > 0 {
			validCount++
		}
	}
	valid := validCount > 0
	s.logger.WithFields(map[string]interface{}{
		"valid":       valid,
		"valid_files": validCount,
	}).Info("Validated login data")
	return valid
}

// CleanupInvalidData removes zero-byte files left behind by an interrupted
// profile write. It returns the number of files removed.
func (s *Store) CleanupInvalidData() int {
	info := s.LoginDataInfo()
	if info.Status == StatusNoData || info.Status == StatusEmpty {
		return 0
	}

	cleaned := 0
	for _, f := range info.Files {
		if f.Size != 0 {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			s.logger.WithError(err).WithField("file", f.Name).Warn("Failed to remove empty file")
			continue
		}
		s.logger.WithField("file", f.Name).Info("Removed empty login file")
		cleaned++
	}
	return cleaned
}

// BackupLoginData copies the login-data directory to a sibling named
// <login_data>_backup_<suffix>. An empty suffix uses the current time. An
// existing backup with the same suffix is replaced. Returns the backup path.
func (s *Store) BackupLoginData(suffix string) (string, error) {
	src := s.LoginDataPath()
	if suffix == "" {
		suffix = time.Now().Format("20060102_150405")
	}
	dst := fmt.Sprintf("%s_backup_%s", src, suffix)

	if _, err := os.Stat(src); err != nil {
		return "", errors.New(errors.ErrCodeBackupFailed, "no login data to back up").
			WithDetail("path", src)
	}
	if err := os.RemoveAll(dst); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBackupFailed,
			"failed to remove stale backup").WithDetail("path", dst)
	}
	if err := copyTree(src, dst); err != nil {
		os.RemoveAll(dst)
		return "", errors.Wrap(err, errors.ErrCodeBackupFailed,
			"failed to copy login data").WithDetail("path", dst)
	}

	s.logger.WithField("backup", dst).Info("Backed up login data")
	return dst, nil
}

// RestoreLoginData replaces the login data with the contents of a backup
// directory. The current data is backed up under the "before_restore"
// suffix first so a bad restore can be undone. A failure after the old data
// has been removed is reported as a partial restore.
func (s *Store) RestoreLoginData(backupPath string) error {
	if backupPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "backup path is required")
	}
	if _, err := os.Stat(backupPath); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "backup path does not exist").
			WithDetail("path", backupPath)
	}

	dst := s.LoginDataPath()
	if dirExists(dst) {
		if _, err := s.BackupLoginData("before_restore"); err != nil {
			s.logger.WithError(err).Warn("Pre-restore backup failed")
		}
	}

	if err := os.RemoveAll(dst); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageUnavailable,
			"failed to remove current login data").WithDetail("path", dst)
	}
	if err := copyTree(backupPath, dst); err != nil {
		return errors.Wrap(err, errors.ErrCodePartialRestore,
			"restore interrupted, login data may be incomplete").
			WithDetail("backup", backupPath)
	}

	s.logger.WithField("backup", backupPath).Info("Restored login data")
	return nil
}

// ListBackups returns the backup directories that exist for this store,
// newest first by name.
func (s *Store) ListBackups() ([]string, error) {
	pattern := s.LoginDataPath() + "_backup_*"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list backups")
	}
	var dirs []string
	for _, m := range matches {
		if dirExists(m) {
			dirs = append(dirs, m)
		}
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// copyTree recursively copies a directory. Symlinks are skipped; the web
// view profile does not use them and following one out of the tree would be
// a hazard.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
