package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
)

// DiskSpaceInfo contains information about available disk space.
type DiskSpaceInfo struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64
}

// FreePercent returns the percentage of free space.
func (d *DiskSpaceInfo) FreePercent() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	return float64(d.FreeBytes) / float64(d.TotalBytes) * 100
}

// CheckDiskSpace checks if there's enough disk space at the given path.
// A path whose free space cannot be determined passes.
func CheckDiskSpace(path string) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return nil
	}

	minFree := config.Global.Storage.MinFreeSpace
	if info.FreeBytes < minFree {
		return errors.NewStorageError("check disk space", fmt.Errorf("%w: %d MB free, need at least %d MB",
			errors.ErrDiskFull, info.FreeBytes/(1024*1024), minFree/(1024*1024)))
	}

	return nil
}

// CheckDiskSpaceWarning returns a warning message if disk space is low.
func CheckDiskSpaceWarning(path string) string {
	info, err := GetDiskSpace(path)
	if err != nil {
		return ""
	}

	if info.FreeBytes < config.Global.Storage.MinFreeSpaceWarning {
		return fmt.Sprintf("Warning: Low disk space (%d MB free, %.1f%%)", info.FreeBytes/(1024*1024), info.FreePercent())
	}

	return ""
}

// existingAncestor walks up from path until it finds a directory that exists.
func existingAncestor(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}

// SafeWrite writes data to path atomically after a disk space check:
// temp file, fsync, chmod, rename.
func SafeWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := CheckDiskSpace(dir); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".ashtanga-*.tmp")
	if err != nil {
		return errors.NewStorageError("create temp file", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errors.NewStorageError("write", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.NewStorageError("sync", err)
	}

	if err := tmpFile.Close(); err != nil {
		return errors.NewStorageError("close", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewStorageError("rename", err)
	}

	success = true
	return nil
}

// EnsureDirectory creates a directory with safe permissions if it doesn't exist.
func EnsureDirectory(path string) error {
	if err := CheckDiskSpace(filepath.Dir(path)); err != nil {
		return err
	}

	if err := os.MkdirAll(path, 0o700); err != nil {
		return errors.NewStorageError("mkdir", err)
	}

	return nil
}
