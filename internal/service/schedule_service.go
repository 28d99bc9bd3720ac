package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/amortization-engine/internal/amortization"
	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/importer"
	"github.com/segyhp/amortization-engine/internal/ledger"
	"github.com/segyhp/amortization-engine/internal/repository"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// ScheduleCache is the read-through cache for schedule records
type ScheduleCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	Set(ctx context.Context, schedule *domain.Schedule) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type ScheduleService struct {
	ScheduleRepo repository.ScheduleRepository
	PaymentRepo  repository.PaymentRepository
	cache        ScheduleCache
	config       *config.Config
	log          *logrus.Logger
	now          func() time.Time
}

// NewScheduleService wires the service. cache may be nil, reads then always
// go to the database.
func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	paymentRepo repository.PaymentRepository,
	cache ScheduleCache,
	config *config.Config,
	log *logrus.Logger,
) *ScheduleService {
	return &ScheduleService{
		ScheduleRepo: scheduleRepo,
		PaymentRepo:  paymentRepo,
		cache:        cache,
		config:       config,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for classification and overdue checks.
func (s *ScheduleService) SetClock(now func() time.Time) {
	s.now = now
}

// PreviewSchedule computes a schedule without persisting anything
func (s *ScheduleService) PreviewSchedule(ctx context.Context, request *domain.GenerateScheduleRequest) (*domain.PreviewResponse, error) {
	request.WithDefaults(s.config.GetDefaultFrequency())

	result, err := amortization.Calculate(request.Principal, request.Rate, request.TermPeriods, request.StartDate, request.Frequency)
	if err != nil {
		return nil, err
	}

	return &domain.PreviewResponse{
		PeriodicPayment: result.PeriodicPayment,
		TotalInterest:   result.TotalInterest,
		TotalCost:       result.TotalCost,
		EndDate:         result.EndDate,
		Payments:        result.Entries,
	}, nil
}

// GenerateSchedule builds an amortization schedule from loan terms and stores
// it with its ledger for the liability.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, liabilityID string, request *domain.GenerateScheduleRequest) (*domain.ScheduleResponse, error) {
	if err := requireLiability(liabilityID); err != nil {
		return nil, err
	}
	request.WithDefaults(s.config.GetDefaultFrequency())
	request.StartDate = utils.TruncateToDay(request.StartDate)

	result, err := amortization.Calculate(request.Principal, request.Rate, request.TermPeriods, request.StartDate, request.Frequency)
	if err != nil {
		return nil, err
	}

	if !request.Replace {
		if err := s.ensureNoSchedule(ctx, liabilityID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	schedule := &domain.Schedule{
		ID:              uuid.New(),
		LiabilityID:     liabilityID,
		LoanType:        request.LoanType,
		Principal:       request.Principal,
		Rate:            decimal.NewNullDecimal(request.Rate),
		RateType:        request.RateType,
		StartDate:       request.StartDate,
		EndDate:         result.EndDate,
		TermPeriods:     request.TermPeriods,
		Frequency:       request.Frequency,
		PeriodicPayment: decimal.NewNullDecimal(result.PeriodicPayment),
		TotalInterest:   decimal.NewNullDecimal(result.TotalInterest),
		TotalCost:       decimal.NewNullDecimal(result.TotalCost),
		Notes:           request.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	entries := result.Entries
	if err := ledger.Validate(entries, schedule.Principal, true); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, schedule, entries, request.Replace); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"schedule_id":  schedule.ID,
		"liability_id": liabilityID,
		"entries":      len(entries),
		"replace":      request.Replace,
	}).Info("schedule generated")

	return &domain.ScheduleResponse{Schedule: schedule, Payments: ledger.Views(entries, now)}, nil
}

// PreviewImport parses an exported schedule and shows how it would be stored
func (s *ScheduleService) PreviewImport(ctx context.Context, content string) (*domain.PreviewResponse, error) {
	entries, err := importer.ParseImportFile(content)
	if err != nil {
		return nil, err
	}
	ledger.ClassifyImported(entries, s.now())

	_, totalInterest, totalCost := ledger.ImportTotals(entries)
	return &domain.PreviewResponse{
		PeriodicPayment: entries[0].TotalAmount,
		TotalInterest:   totalInterest,
		TotalCost:       totalCost,
		EndDate:         entries[len(entries)-1].ScheduledDate,
		Payments:        entries,
	}, nil
}

// ImportSchedule stores a bank-exported schedule for the liability. Rows dated
// before today count as already paid.
func (s *ScheduleService) ImportSchedule(ctx context.Context, liabilityID string, request *domain.ImportScheduleRequest) (*domain.ScheduleResponse, error) {
	if err := requireLiability(liabilityID); err != nil {
		return nil, err
	}
	request.WithDefaults(s.config.GetDefaultFrequency())

	if !request.Frequency.Valid() {
		return nil, customError.WrapInvalidLoanTerms("unknown payment frequency " + string(request.Frequency))
	}
	if request.Rate.Valid && request.Rate.Decimal.IsNegative() {
		return nil, customError.WrapInvalidLoanTerms("rate must not be negative")
	}

	entries, err := importer.ParseImportFile(request.Content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ledger.ClassifyImported(entries, now)

	raw, err := importer.Snapshot(entries)
	if err != nil {
		return nil, err
	}

	if !request.Replace {
		if err := s.ensureNoSchedule(ctx, liabilityID); err != nil {
			return nil, err
		}
	}

	principal, totalInterest, totalCost := ledger.ImportTotals(entries)
	schedule := &domain.Schedule{
		ID:              uuid.New(),
		LiabilityID:     liabilityID,
		LoanType:        request.LoanType,
		Principal:       principal,
		Rate:            request.Rate,
		RateType:        request.RateType,
		StartDate:       entries[0].ScheduledDate,
		EndDate:         entries[len(entries)-1].ScheduledDate,
		TermPeriods:     len(entries),
		Frequency:       request.Frequency,
		PeriodicPayment: decimal.NewNullDecimal(entries[0].TotalAmount),
		TotalInterest:   decimal.NewNullDecimal(totalInterest),
		TotalCost:       decimal.NewNullDecimal(totalCost),
		ImportedRaw:     raw,
		IsImported:      true,
		Notes:           request.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := ledger.Validate(entries, principal, false); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, schedule, entries, request.Replace); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"schedule_id":   schedule.ID,
		"liability_id":  liabilityID,
		"entries":       len(entries),
		"payments_made": schedule.PaymentsMade,
		"replace":       request.Replace,
	}).Info("schedule imported")

	return &domain.ScheduleResponse{Schedule: schedule, Payments: ledger.Views(entries, now)}, nil
}

// GetSchedule returns a schedule and its ledger. The schedule record is
// served from cache when possible; the ledger always comes from the database.
func (s *ScheduleService) GetSchedule(ctx context.Context, id uuid.UUID) (*domain.ScheduleResponse, error) {
	schedule, err := s.loadSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.PaymentRepo.ListByScheduleID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleResponse{Schedule: schedule, Payments: ledger.Views(entries, s.now())}, nil
}

func (s *ScheduleService) GetScheduleByLiability(ctx context.Context, liabilityID string) (*domain.ScheduleResponse, error) {
	schedule, err := s.ScheduleRepo.GetByLiabilityID(ctx, liabilityID)
	if err != nil {
		return nil, err
	}

	entries, err := s.PaymentRepo.ListByScheduleID(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleResponse{Schedule: schedule, Payments: ledger.Views(entries, s.now())}, nil
}

// ListPayments returns the ledger ordered by sequence with overdue flags
func (s *ScheduleService) ListPayments(ctx context.Context, scheduleID uuid.UUID) ([]domain.PaymentView, error) {
	if _, err := s.loadSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}

	entries, err := s.PaymentRepo.ListByScheduleID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	return ledger.Views(entries, s.now()), nil
}

// MarkPaid settles one scheduled entry and rolls the schedule summary
// forward from the whole ledger. The entry and the summary are stored
// together.
func (s *ScheduleService) MarkPaid(ctx context.Context, scheduleID, entryID uuid.UUID, request *domain.MarkPaidRequest) (*domain.PaymentView, error) {
	schedule, err := s.ScheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	entry, err := s.PaymentRepo.GetByID(ctx, scheduleID, entryID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	paidOn := utils.TruncateToDay(now)
	if request.ActualDate != nil {
		paidOn = utils.TruncateToDay(*request.ActualDate)
	}

	if err := ledger.MarkPaid(entry, request.ActualAmount, paidOn, request.Notes); err != nil {
		return nil, err
	}
	entry.UpdatedAt = now

	entries, err := s.PaymentRepo.ListByScheduleID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i] = *entry
		}
	}
	summary := ledger.Summarize(schedule.Principal, entries)

	if err := s.PaymentRepo.Settle(ctx, entry, summary); err != nil {
		return nil, err
	}
	s.invalidate(ctx, scheduleID)

	s.log.WithFields(logrus.Fields{
		"schedule_id":   scheduleID,
		"sequence":      entry.SequenceNumber,
		"amount":        entry.ActualAmount.Decimal.StringFixed(2),
		"payments_made": summary.PaymentsMade,
	}).Info("payment marked paid")

	return &domain.PaymentView{PaymentEntry: *entry, Overdue: false}, nil
}

// DeleteSchedule removes the schedule and all of its entries, or nothing
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if err := s.ScheduleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.log.WithField("schedule_id", id).Info("schedule deleted")
	return nil
}

// ExportSchedule writes the ledger in the delimited import format
func (s *ScheduleService) ExportSchedule(ctx context.Context, id uuid.UUID, w io.Writer) error {
	if _, err := s.loadSchedule(ctx, id); err != nil {
		return err
	}

	entries, err := s.PaymentRepo.ListByScheduleID(ctx, id)
	if err != nil {
		return err
	}

	return importer.Export(w, entries)
}

// OverdueReport derives the overdue entries of every schedule. Nothing is
// written back; overdue stays a read-side state.
func (s *ScheduleService) OverdueReport(ctx context.Context) ([]domain.OverdueSummary, error) {
	now := s.now()
	entries, err := s.PaymentRepo.ListScheduledDueBefore(ctx, utils.TruncateToDay(now))
	if err != nil {
		return nil, err
	}

	var report []domain.OverdueSummary
	index := make(map[uuid.UUID]int)
	for _, e := range ledger.OverdueEntries(entries, now) {
		i, ok := index[e.ScheduleID]
		if !ok {
			i = len(report)
			index[e.ScheduleID] = i
			report = append(report, domain.OverdueSummary{
				ScheduleID:    e.ScheduleID,
				OverdueAmount: decimal.Zero,
				OldestDueDate: e.ScheduledDate,
			})
		}

		summary := &report[i]
		summary.OverdueCount++
		summary.OverdueAmount = summary.OverdueAmount.Add(e.TotalAmount)
		summary.OverdueSequence = append(summary.OverdueSequence, e.SequenceNumber)
		if e.ScheduledDate.Before(summary.OldestDueDate) {
			summary.OldestDueDate = e.ScheduledDate
		}
	}

	return report, nil
}

// UpcomingPayments lists scheduled entries due within the next windowDays days, today included
func (s *ScheduleService) UpcomingPayments(ctx context.Context, windowDays int) ([]domain.PaymentEntry, error) {
	today := utils.TruncateToDay(s.now())
	return s.PaymentRepo.ListScheduledBetween(ctx, today, today.AddDate(0, 0, windowDays))
}

func (s *ScheduleService) ensureNoSchedule(ctx context.Context, liabilityID string) error {
	existing, err := s.ScheduleRepo.GetByLiabilityID(ctx, liabilityID)
	if err == nil && existing != nil {
		return customError.WrapScheduleAlreadyExists(liabilityID)
	}
	if err != nil && !errors.Is(err, customError.ErrScheduleNotFound) {
		return err
	}
	return nil
}

// persist assigns identities, rolls up the summary and stores the aggregate
func (s *ScheduleService) persist(ctx context.Context, schedule *domain.Schedule, entries []domain.PaymentEntry, replace bool) error {
	for i := range entries {
		entries[i].ID = uuid.New()
		entries[i].ScheduleID = schedule.ID
		entries[i].CreatedAt = schedule.CreatedAt
		entries[i].UpdatedAt = schedule.UpdatedAt
	}
	schedule.Apply(ledger.Summarize(schedule.Principal, entries))

	var err error
	if replace {
		var previous *domain.Schedule
		previous, err = s.ScheduleRepo.GetByLiabilityID(ctx, schedule.LiabilityID)
		if err != nil && !errors.Is(err, customError.ErrScheduleNotFound) {
			return err
		}
		if err = s.ScheduleRepo.Replace(ctx, schedule, entries); err == nil && previous != nil {
			s.invalidate(ctx, previous.ID)
		}
	} else {
		err = s.ScheduleRepo.Create(ctx, schedule, entries)
	}
	if err != nil {
		return err
	}

	s.store(ctx, schedule)
	return nil
}

func (s *ScheduleService) loadSchedule(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("schedule_id", id).Warn("schedule cache read failed")
		}
		if cached != nil {
			return cached, nil
		}
	}

	schedule, err := s.ScheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, schedule)
	return schedule, nil
}

func (s *ScheduleService) store(ctx context.Context, schedule *domain.Schedule) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, schedule); err != nil {
		s.log.WithError(err).WithField("schedule_id", schedule.ID).Warn("schedule cache write failed")
	}
}

func (s *ScheduleService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.WithError(err).WithField("schedule_id", id).Warn("schedule cache invalidation failed")
	}
}

func requireLiability(liabilityID string) error {
	if strings.TrimSpace(liabilityID) == "" {
		return customError.WrapInvalidLoanTerms("liability id is required")
	}
	return nil
}
