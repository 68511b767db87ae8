package service

import (
	"context"

	"github.com/carson-networks/finance-server/internal/jobs"
)

// RecurringService exposes the recurring transaction machinery to operators.
type RecurringService struct {
	scanner     Scanner
	deadLetters DeadLetterSource
}

func NewRecurringService(scanner Scanner, deadLetters DeadLetterSource) *RecurringService {
	return &RecurringService{scanner: scanner, deadLetters: deadLetters}
}

// Scan runs a due scan now, outside the cron schedule.
func (s *RecurringService) Scan(ctx context.Context) (int, error) {
	return s.scanner.Run(ctx)
}

// DeadLetters lists the work items that could not be processed, optionally
// restricted to one user.
func (s *RecurringService) DeadLetters(userID string) []jobs.DeadLetter {
	all := s.deadLetters.DeadLetters()
	if userID == "" {
		return all
	}
	out := make([]jobs.DeadLetter, 0, len(all))
	for _, dl := range all {
		if dl.Item.UserID == userID {
			out = append(out, dl)
		}
	}
	return out
}
