//go:build !darwin && !linux

package storage

// detectFilesystemType cannot tell network mounts apart on this platform, so
// every path is treated as local.
func detectFilesystemType(path string) (string, error) {
	return "unknown", nil
}
