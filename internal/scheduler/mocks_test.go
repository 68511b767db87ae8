package scheduler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/carson-networks/finance-server/internal/jobs"
	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

type mockDueLister struct {
	mock.Mock
}

func (m *mockDueLister) ListDue(ctx context.Context, now time.Time) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, now)
	rows, _ := args.Get(0).([]*transaction.Transaction)
	return rows, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishMany(ctx context.Context, items []jobs.WorkItem) error {
	return m.Called(ctx, items).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockOperator struct {
	mock.Mock
}

func (m *mockOperator) Process(ctx context.Context, action actions.IAction) error {
	return m.Called(ctx, action).Error(0)
}

type mockScanner struct {
	mock.Mock
}

func (m *mockScanner) Run(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
