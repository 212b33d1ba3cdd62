// internal/adapters/storage/keys.go
package storage

import (
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
)

const (
	ReceiptsPrefix = "receipts/"
	ImportsPrefix  = "imports/"
)

// ReceiptKey is where the archived text receipt of a sale lives, partitioned by month
func ReceiptKey(saleID uuid.UUID, createdAt time.Time) string {
	return fmt.Sprintf("%s%s/%s.txt", ReceiptsPrefix, createdAt.UTC().Format("2006/01"), saleID)
}

// ImportKey is where an uploaded restock sheet is kept until the worker has processed it
func ImportKey(jobID uuid.UUID, fileName string) string {
	base := path.Base(path.Clean("/" + fileName))
	if base == "/" || base == "." {
		base = "upload"
	}
	return fmt.Sprintf("%s%s/%s", ImportsPrefix, jobID, base)
}
