package utils

// MaxFileSizeBytes converts the configured upload cap (config.Providers.
// MaxFileSizeMB) into bytes for comparison against an upload's content
// length. A non-positive maxMB falls back to the 50MB default so a blank
// config never silently disables the cap.
func MaxFileSizeBytes(maxMB int64) int64 {
	if maxMB <= 0 {
		maxMB = 50
	}
	return maxMB * 1024 * 1024
}
