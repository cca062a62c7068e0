//go:build !linux

package watcher

// DetectFilesystemType only classifies filesystems on Linux.
func DetectFilesystemType(string) FilesystemType {
	return FSTypeUnknown
}
