package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/amortization-engine/internal/domain"
)

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) PreviewSchedule(ctx context.Context, request *domain.GenerateScheduleRequest) (*domain.PreviewResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PreviewResponse), args.Error(1)
}

func (m *MockScheduleService) GenerateSchedule(ctx context.Context, liabilityID string, request *domain.GenerateScheduleRequest) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, liabilityID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockScheduleService) PreviewImport(ctx context.Context, content string) (*domain.PreviewResponse, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PreviewResponse), args.Error(1)
}

func (m *MockScheduleService) ImportSchedule(ctx context.Context, liabilityID string, request *domain.ImportScheduleRequest) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, liabilityID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockScheduleService) GetSchedule(ctx context.Context, id uuid.UUID) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockScheduleService) GetScheduleByLiability(ctx context.Context, liabilityID string) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, liabilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockScheduleService) ListPayments(ctx context.Context, scheduleID uuid.UUID) ([]domain.PaymentView, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentView), args.Error(1)
}

func (m *MockScheduleService) MarkPaid(ctx context.Context, scheduleID, entryID uuid.UUID, request *domain.MarkPaidRequest) (*domain.PaymentView, error) {
	args := m.Called(ctx, scheduleID, entryID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentView), args.Error(1)
}

func (m *MockScheduleService) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduleService) ExportSchedule(ctx context.Context, id uuid.UUID, w io.Writer) error {
	args := m.Called(ctx, id, w)
	if body := args.String(1); body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(0)
}

func (m *MockScheduleService) OverdueReport(ctx context.Context) ([]domain.OverdueSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OverdueSummary), args.Error(1)
}

func (m *MockScheduleService) UpcomingPayments(ctx context.Context, windowDays int) ([]domain.PaymentEntry, error) {
	args := m.Called(ctx, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentEntry), args.Error(1)
}
