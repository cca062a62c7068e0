package watcher

// FilesystemType is a coarse classification of the filesystem holding the
// watched file. fsnotify does not see changes made by other hosts on
// network filesystems, so those are polled.
type FilesystemType string

const (
	FSTypeUnknown FilesystemType = "unknown"
	FSTypeLocal   FilesystemType = "local"
	FSTypeNFS     FilesystemType = "nfs"
	FSTypeSMB     FilesystemType = "smb"
	FSTypeFUSE    FilesystemType = "fuse"
	FSType9P      FilesystemType = "9p"
)

func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeFUSE, FSType9P:
		return true
	}
	return false
}
