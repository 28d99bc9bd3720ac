package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/response"
)

// ScheduleService is what the HTTP layer needs from the service layer
type ScheduleService interface {
	PreviewSchedule(ctx context.Context, request *domain.GenerateScheduleRequest) (*domain.PreviewResponse, error)
	GenerateSchedule(ctx context.Context, liabilityID string, request *domain.GenerateScheduleRequest) (*domain.ScheduleResponse, error)
	PreviewImport(ctx context.Context, content string) (*domain.PreviewResponse, error)
	ImportSchedule(ctx context.Context, liabilityID string, request *domain.ImportScheduleRequest) (*domain.ScheduleResponse, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*domain.ScheduleResponse, error)
	GetScheduleByLiability(ctx context.Context, liabilityID string) (*domain.ScheduleResponse, error)
	ListPayments(ctx context.Context, scheduleID uuid.UUID) ([]domain.PaymentView, error)
	MarkPaid(ctx context.Context, scheduleID, entryID uuid.UUID, request *domain.MarkPaidRequest) (*domain.PaymentView, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	ExportSchedule(ctx context.Context, id uuid.UUID, w io.Writer) error
}

type ScheduleHandler struct {
	service   ScheduleService
	validator *validator.Validate
	config    *config.Config
	log       logrus.FieldLogger
}

func NewScheduleHandler(service ScheduleService, cfg *config.Config, log logrus.FieldLogger) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		validator: newValidator(),
		config:    cfg,
		log:       log,
	}
}

// generateScheduleBody accepts start_date as a plain date or RFC 3339
type generateScheduleBody struct {
	domain.GenerateScheduleRequest
	StartDate string `json:"start_date"`
}

type markPaidBody struct {
	domain.MarkPaidRequest
	ActualDate string `json:"actual_date,omitempty"`
}

// PreviewSchedule handles POST /schedules/preview
func (h *ScheduleHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	request, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}

	preview, err := h.service.PreviewSchedule(r.Context(), request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, preview)
}

// GenerateSchedule handles POST /liabilities/{liabilityId}/schedule
func (h *ScheduleHandler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	request, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}

	schedule, err := h.service.GenerateSchedule(r.Context(), mux.Vars(r)["liabilityId"], request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, schedule)
}

// PreviewImport handles POST /schedules/import/preview
func (h *ScheduleHandler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	content, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	preview, err := h.service.PreviewImport(r.Context(), content)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, preview)
}

// ImportSchedule handles POST /liabilities/{liabilityId}/schedule/import
func (h *ScheduleHandler) ImportSchedule(w http.ResponseWriter, r *http.Request) {
	content, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	request := &domain.ImportScheduleRequest{
		LoanType:  domain.LoanType(r.FormValue("loan_type")),
		RateType:  domain.RateType(r.FormValue("rate_type")),
		Frequency: domain.Frequency(r.FormValue("frequency")),
		Content:   content,
	}
	if notes := r.FormValue("notes"); notes != "" {
		request.Notes = &notes
	}
	if raw := r.FormValue("rate"); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			response.BadRequest(w, "Invalid rate", err)
			return
		}
		request.Rate = decimal.NewNullDecimal(rate)
	}
	if raw := r.FormValue("replace"); raw != "" {
		replace, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, "Invalid replace flag", err)
			return
		}
		request.Replace = replace
	}

	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	schedule, err := h.service.ImportSchedule(r.Context(), mux.Vars(r)["liabilityId"], request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, schedule)
}

// GetScheduleByLiability handles GET /liabilities/{liabilityId}/schedule
func (h *ScheduleHandler) GetScheduleByLiability(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetScheduleByLiability(r.Context(), mux.Vars(r)["liabilityId"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, schedule)
}

// GetSchedule handles GET /schedules/{scheduleId}
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "scheduleId")
	if !ok {
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, schedule)
}

// ListPayments handles GET /schedules/{scheduleId}/payments
func (h *ScheduleHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "scheduleId")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, payments)
}

// ExportSchedule handles GET /schedules/{scheduleId}/export
func (h *ScheduleHandler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "scheduleId")
	if !ok {
		return
	}

	// Buffer so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.service.ExportSchedule(r.Context(), id, &buf); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "schedule-"+id.String()+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.WithError(err).WithField("schedule_id", id).Warn("writing export")
	}
}

// MarkPaid handles POST /schedules/{scheduleId}/payments/{paymentId}/paid.
// An empty body settles the scheduled amount today.
func (h *ScheduleHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	scheduleID, ok := pathUUID(w, r, "scheduleId")
	if !ok {
		return
	}
	entryID, ok := pathUUID(w, r, "paymentId")
	if !ok {
		return
	}

	var body markPaidBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	request := body.MarkPaidRequest
	if body.ActualDate != "" {
		date, err := parseDate(body.ActualDate)
		if err != nil {
			response.BadRequest(w, "Invalid actual_date", err)
			return
		}
		request.ActualDate = &date
	}

	payment, err := h.service.MarkPaid(r.Context(), scheduleID, entryID, &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, payment)
}

// DeleteSchedule handles DELETE /schedules/{scheduleId}
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "scheduleId")
	if !ok {
		return
	}

	if err := h.service.DeleteSchedule(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *ScheduleHandler) decodeGenerate(w http.ResponseWriter, r *http.Request) (*domain.GenerateScheduleRequest, bool) {
	var body generateScheduleBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return nil, false
	}

	request := body.GenerateScheduleRequest
	if body.StartDate != "" {
		start, err := parseDate(body.StartDate)
		if err != nil {
			response.BadRequest(w, "Invalid start_date", err)
			return nil, false
		}
		request.StartDate = start
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return nil, false
	}

	return &request, true
}

// readUpload returns the multipart "file" part, bounded by IMPORT_MAX_BYTES
func (h *ScheduleHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	limit := h.config.Business.ImportMaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			response.Error(w, http.StatusRequestEntityTooLarge, "Upload too large", err)
			return "", false
		}
		response.BadRequest(w, "Invalid multipart form", err)
		return "", false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file", err)
		return "", false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, "Unreadable file", err)
		return "", false
	}
	if strings.TrimSpace(string(content)) == "" {
		response.BadRequest(w, "Empty file", nil)
		return "", false
	}

	return string(content), true
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		h.log.WithError(err).Error("unhandled service error")
		response.InternalServerError(w, "Internal server error", nil)
		return
	}

	status := statusFor(bizErr.Code)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("code", bizErr.Code).Error("request failed")
		response.Fail(w, status, bizErr.Code, "Internal server error")
		return
	}

	response.Fail(w, status, bizErr.Code, bizErr.Message)
}

func statusFor(code string) int {
	switch code {
	case customError.ErrCodeScheduleNotFound, customError.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case customError.ErrCodeScheduleAlreadyExists:
		return http.StatusConflict
	case customError.ErrCodeInvalidLoanTerms, customError.ErrCodeInvalidPaymentAmount:
		return http.StatusBadRequest
	case customError.ErrCodePaymentAlreadySettled,
		customError.ErrCodeInvalidTransition,
		customError.ErrCodeNoDateColumn,
		customError.ErrCodeNoValidRows,
		customError.ErrCodeInconsistentLedger:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
