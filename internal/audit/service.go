package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It MUST be append-only; no Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records auth-flow outcomes. Callers treat recording as
// best-effort: a nil service or a failing repository never interrupts an
// authentication flow.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Record appends one event. Safe to call on a nil service.
func (s *Service) Record(ctx context.Context, action Action, userID int64, username, outcome string) {
	if s == nil || s.repo == nil {
		return
	}
	_ = s.repo.Append(ctx, Event{
		ID:          uuid.NewString(),
		Action:      action,
		ActorUserID: userID,
		Username:    username,
		Outcome:     outcome,
		CreatedAt:   s.clock().UTC(),
	})
}
