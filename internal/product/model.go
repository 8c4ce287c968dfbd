package product

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Image holds the metadata of an uploaded product image. The binary itself
// lives in the remote object store; Key identifies it there.
type Image struct {
	FileName string `json:"fileName,omitempty"`
	FilePath string `json:"filePath,omitempty"`
	Key      string `json:"-"`
	FileType string `json:"fileType,omitempty"`
	FileSize string `json:"fileSize,omitempty"`
}

type Product struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category"`
	Quantity    int64     `json:"quantity"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Image       Image     `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// formatFileSize renders a byte count for display, e.g. "2.53 MB".
func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d bytes", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
