package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/mocks"
)

func TestJobs_ReportOverdue(t *testing.T) {
	log, hook := test.NewNullLogger()
	service := new(mocks.MockScheduleService)
	jobs := NewJobs(service, log, 7)

	first, second := uuid.New(), uuid.New()
	service.On("OverdueReport", mock.Anything).Return([]domain.OverdueSummary{
		{ScheduleID: first, OverdueCount: 2, OverdueAmount: decimal.RequireFromString("200"), OldestDueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ScheduleID: second, OverdueCount: 1, OverdueAmount: decimal.RequireFromString("42.5"), OldestDueDate: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
	}, nil).Once()

	require.NoError(t, jobs.ReportOverdue(context.Background()))

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, first, entries[0].Data["schedule_id"])
	assert.Equal(t, "2024-01-10", entries[0].Data["oldest_due_date"])
	assert.Equal(t, "overdue report finished", entries[2].Message)
	assert.Equal(t, 2, entries[2].Data["schedules"])
	assert.Equal(t, "242.50", entries[2].Data["amount"])
	service.AssertExpectations(t)
}

func TestJobs_ReportOverdue_Failure(t *testing.T) {
	log, hook := test.NewNullLogger()
	service := new(mocks.MockScheduleService)
	jobs := NewJobs(service, log, 7)

	service.On("OverdueReport", mock.Anything).Return(nil, errors.New("db down")).Once()

	err := jobs.ReportOverdue(context.Background())

	assert.EqualError(t, err, "db down")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	service.AssertExpectations(t)
}

func TestJobs_RemindUpcoming(t *testing.T) {
	log, hook := test.NewNullLogger()
	service := new(mocks.MockScheduleService)
	jobs := NewJobs(service, log, 3)

	service.On("UpcomingPayments", mock.Anything, 3).Return([]domain.PaymentEntry{
		{ScheduleID: uuid.New(), SequenceNumber: 4, ScheduledDate: time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), TotalAmount: decimal.RequireFromString("1835.98")},
	}, nil).Once()

	require.NoError(t, jobs.RemindUpcoming(context.Background()))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "payment due soon", entries[0].Message)
	assert.Equal(t, "1835.98", entries[0].Data["amount"])
	assert.Equal(t, 1, entries[1].Data["payments"])
	assert.Equal(t, 3, entries[1].Data["window_days"])
	service.AssertExpectations(t)
}

func TestJobs_Register(t *testing.T) {
	log, _ := test.NewNullLogger()
	jobs := NewJobs(new(mocks.MockScheduleService), log, 7)

	tests := []struct {
		name    string
		cfg     config.SchedulerConfig
		wantErr string
	}{
		{
			name: "valid specs",
			cfg:  config.SchedulerConfig{OverdueCron: "0 0 1 * * *", ReminderCron: "0 0 8 * * *"},
		},
		{
			name:    "overdue spec without seconds",
			cfg:     config.SchedulerConfig{OverdueCron: "0 1 * * *", ReminderCron: "0 0 8 * * *"},
			wantErr: "schedule overdue report",
		},
		{
			name:    "bad reminder spec",
			cfg:     config.SchedulerConfig{OverdueCron: "0 0 1 * * *", ReminderCron: "whenever"},
			wantErr: "schedule payment reminders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.UTC)
			err := jobs.Register(c, tt.cfg)

			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Entries(), 2)
		})
	}
}
