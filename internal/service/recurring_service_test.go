package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carson-networks/finance-server/internal/jobs"
)

func TestRecurringScan(t *testing.T) {
	scanner := &mockScanner{}
	scanner.On("Run", mock.Anything).Return(3, nil)
	svc := NewRecurringService(scanner, staticDeadLetters{})

	count, err := svc.Scan(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	scanner.AssertExpectations(t)
}

func TestRecurringDeadLetters_FilteredByUser(t *testing.T) {
	svc := NewRecurringService(&mockScanner{}, staticDeadLetters{
		{Item: jobs.WorkItem{UserID: "alice", TransactionID: "t1"}, Error: "boom"},
		{Item: jobs.WorkItem{UserID: "bob", TransactionID: "t2"}, Error: "boom"},
	})

	assert.Len(t, svc.DeadLetters(""), 2)
	mine := svc.DeadLetters("alice")
	if assert.Len(t, mine, 1) {
		assert.Equal(t, "t1", mine[0].Item.TransactionID)
	}
}
