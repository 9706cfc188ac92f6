// Package notify delivers best-effort notifications after a committed
// status transition. Delivery failures are logged, never propagated: a
// transition that committed stays committed.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/grantdesk/grantdesk/src/api/data"
	"github.com/grantdesk/grantdesk/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

func New(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

// Transition records the status change for the proposal owner and
// publishes it on the transition stream. Fire-and-forget.
func (s *Service) Transition(p types.Proposal, actorID string) {
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		n := types.Notification{
			UserID:     p.ResearcherID,
			ProposalID: p.ID,
			Status:     p.Status,
			ActorID:    actorID,
			Message:    fmt.Sprintf("Proposal %q is now %s", p.Title, p.Status),
		}
		if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
			log.Printf("notify: store notification for %s: %v", p.ID, err)
		}

		if s.rdb == nil {
			return
		}
		err := data.PublishTransition(ctx, s.rdb, map[string]any{
			"proposal": p.ID,
			"status":   p.Status,
			"actor":    actorID,
			"time":     time.Now().Unix(),
		})
		if err != nil {
			log.Printf("notify: publish transition for %s: %v", p.ID, err)
		}
	}()
}
