package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/domain"
)

// ReportService is the read side the periodic jobs run against
type ReportService interface {
	OverdueReport(ctx context.Context) ([]domain.OverdueSummary, error)
	UpcomingPayments(ctx context.Context, windowDays int) ([]domain.PaymentEntry, error)
}

// jobTimeout bounds a single run of either job
const jobTimeout = 5 * time.Minute

type Jobs struct {
	service    ReportService
	log        logrus.FieldLogger
	windowDays int
}

func NewJobs(service ReportService, log logrus.FieldLogger, windowDays int) *Jobs {
	return &Jobs{service: service, log: log, windowDays: windowDays}
}

// New builds a cron runner with seconds precision in the configured timezone
func New(loc *time.Location) *cron.Cron {
	return cron.New(cron.WithSeconds(), cron.WithLocation(loc))
}

// Register adds both jobs to c using the configured specs
func (j *Jobs) Register(c *cron.Cron, cfg config.SchedulerConfig) error {
	if _, err := c.AddFunc(cfg.OverdueCron, j.runWithTimeout(j.ReportOverdue)); err != nil {
		return fmt.Errorf("schedule overdue report: %w", err)
	}
	if _, err := c.AddFunc(cfg.ReminderCron, j.runWithTimeout(j.RemindUpcoming)); err != nil {
		return fmt.Errorf("schedule payment reminders: %w", err)
	}
	return nil
}

// ReportOverdue logs one line per schedule with overdue entries. Overdue is
// derived on read, so nothing is written back.
func (j *Jobs) ReportOverdue(ctx context.Context) error {
	report, err := j.service.OverdueReport(ctx)
	if err != nil {
		j.log.WithError(err).Error("overdue report failed")
		return err
	}

	total := decimal.Zero
	for _, s := range report {
		total = total.Add(s.OverdueAmount)
		j.log.WithFields(logrus.Fields{
			"schedule_id":     s.ScheduleID,
			"overdue_count":   s.OverdueCount,
			"overdue_amount":  s.OverdueAmount.StringFixed(2),
			"oldest_due_date": s.OldestDueDate.Format("2006-01-02"),
		}).Warn("schedule has overdue payments")
	}

	j.log.WithFields(logrus.Fields{
		"schedules": len(report),
		"amount":    total.StringFixed(2),
	}).Info("overdue report finished")
	return nil
}

// RemindUpcoming logs the scheduled payments due inside the reminder window
func (j *Jobs) RemindUpcoming(ctx context.Context) error {
	entries, err := j.service.UpcomingPayments(ctx, j.windowDays)
	if err != nil {
		j.log.WithError(err).Error("payment reminders failed")
		return err
	}

	for _, e := range entries {
		j.log.WithFields(logrus.Fields{
			"schedule_id": e.ScheduleID,
			"sequence":    e.SequenceNumber,
			"due_date":    e.ScheduledDate.Format("2006-01-02"),
			"amount":      e.TotalAmount.StringFixed(2),
		}).Info("payment due soon")
	}

	j.log.WithFields(logrus.Fields{
		"payments":    len(entries),
		"window_days": j.windowDays,
	}).Info("payment reminders finished")
	return nil
}

func (j *Jobs) runWithTimeout(job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		_ = job(ctx)
	}
}
