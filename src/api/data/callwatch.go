package data

import (
	"context"
	"log"
	"time"

	"github.com/grantdesk/grantdesk/src/api/types"
	"gorm.io/gorm"
)

// CallWindowService periodically closes published calls whose deadline
// has passed, so the registry never reports an expired call as open.
// Submission checks also compare against the deadline directly; the
// sweep only keeps the stored status honest for listings.
func CallWindowService(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := db.Model(&types.Call{}).
				Where("status = ? AND deadline < ?", types.CallPublished, time.Now()).
				Update("status", types.CallClosed)
			if res.Error != nil {
				log.Printf("call window sweep: %v", res.Error)
				continue
			}
			if res.RowsAffected > 0 {
				log.Printf("call window sweep: closed %d call(s)", res.RowsAffected)
			}
		}
	}
}
