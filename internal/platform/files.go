package platform

import (
	"fmt"
	"os"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// EnsureDir creates the directory if it doesn't exist
func EnsureDir(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FileSize returns the size of a regular file in bytes
func FileSize(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", filePath)
	}
	return info.Size(), nil
}

// RemoveIfExists removes the file, treating a missing file as success
func RemoveIfExists(filePath string) error {
	err := os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
