// internal/app/system/csvutil/limits.go
package csvutil

// Upload size and row limits for CSV processing.
const (
	MaxUploadSize = 10 << 20 // 10 MB
	MaxRows       = 50000
)
