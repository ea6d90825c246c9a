package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewTransactionID builds a gateway transaction id. The timestamp keeps ids
// sortable, the uuid suffix keeps two sessions in the same millisecond apart.
func NewTransactionID() string {
	return fmt.Sprintf("txn_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
