package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/mocks"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(service *mocks.MockScheduleService, maxBytes int64) *mux.Router {
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{Business: config.BusinessConfig{DefaultFrequency: "monthly", ImportMaxBytes: maxBytes}}
	return NewRouter(NewScheduleHandler(service, cfg, log), nil, log)
}

func serve(router http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body envelope
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func multipartRequest(t *testing.T, path, content string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if content != "" {
		part, err := writer.CreateFormFile("file", "schedule.csv")
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestScheduleHandler_GenerateSchedule(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.MockScheduleService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "successful generation with a plain start date",
			body: `{"principal":"240000","rate":"4.5","term_periods":180,"start_date":"2021-03-15"}`,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("GenerateSchedule", mock.Anything, "mortgage-1", mock.MatchedBy(func(req *domain.GenerateScheduleRequest) bool {
					return req.Principal.Equal(decimal.NewFromInt(240000)) &&
						req.Rate.Equal(decimal.RequireFromString("4.5")) &&
						req.TermPeriods == 180 &&
						req.StartDate.Equal(time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)) &&
						!req.Replace
					})).Return(&domain.ScheduleResponse{Schedule: &domain.Schedule{ID: uuid.New(), LiabilityID: "mortgage-1"}}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "rfc3339 start date and replace flag",
			body: `{"principal":1000,"rate":0,"term_periods":4,"start_date":"2024-01-10T00:00:00Z","replace":true}`,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("GenerateSchedule", mock.Anything, "mortgage-1", mock.MatchedBy(func(req *domain.GenerateScheduleRequest) bool {
					return req.Replace && req.Rate.IsZero()
				})).Return(&domain.ScheduleResponse{}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "zero principal fails validation",
			body:           `{"principal":"0","rate":"4.5","term_periods":12,"start_date":"2024-01-01"}`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "principal with sub-cent digits fails validation",
			body:           `{"principal":"1000.005","rate":"4.5","term_periods":12,"start_date":"2024-01-01"}`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "term over the maximum fails validation",
			body:           `{"principal":"1000","rate":"0","term_periods":1201,"start_date":"2024-01-01"}`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative rate fails validation",
			body:           `{"principal":"100","rate":"-1","term_periods":12,"start_date":"2024-01-01"}`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown frequency fails validation",
			body:           `{"principal":"100","rate":"1","term_periods":12,"start_date":"2024-01-01","frequency":"weekly"}`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing start date",
			body:           `{"principal":"100","rate":"1","term_periods":12}`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unreadable start date",
			body:           `{"principal":"100","rate":"1","term_periods":12,"start_date":"15.03.2021"}`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			body:           `{"principal":`,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "liability already scheduled",
			body: `{"principal":"100","rate":"1","term_periods":12,"start_date":"2024-01-01"}`,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("GenerateSchedule", mock.Anything, "mortgage-1", mock.Anything).
					Return(nil, customError.WrapScheduleAlreadyExists("mortgage-1")).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   customError.ErrCodeScheduleAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mocks.MockScheduleService)
			tt.setupMock(service)
			router := newTestRouter(service, 1<<20)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/liabilities/mortgage-1/schedule", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w, body := serve(router, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, body.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestScheduleHandler_PreviewSchedule(t *testing.T) {
	service := new(mocks.MockScheduleService)
	service.On("PreviewSchedule", mock.Anything, mock.MatchedBy(func(req *domain.GenerateScheduleRequest) bool {
		return req.Frequency == domain.FrequencyQuarterly
	})).Return(&domain.PreviewResponse{PeriodicPayment: decimal.RequireFromString("262.63")}, nil).Once()
	router := newTestRouter(service, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/preview",
		strings.NewReader(`{"principal":"1000","rate":"5","term_periods":4,"frequency":"quarterly","start_date":"2024-01-01"}`))
	w, body := serve(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	var preview domain.PreviewResponse
	require.NoError(t, json.Unmarshal(body.Data, &preview))
	assert.True(t, decimal.RequireFromString("262.63").Equal(preview.PeriodicPayment))
	service.AssertExpectations(t)
}

func TestScheduleHandler_ImportSchedule(t *testing.T) {
	content := "Date,Payment\n2024-01-15,100\n"

	tests := []struct {
		name           string
		content        string
		fields         map[string]string
		maxBytes       int64
		setupMock      func(*mocks.MockScheduleService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:     "file with form fields",
			content:  content,
			fields:   map[string]string{"rate": "3.9", "frequency": "monthly", "replace": "true", "notes": "from bank"},
			maxBytes: 1 << 20,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("ImportSchedule", mock.Anything, "car-loan", mock.MatchedBy(func(req *domain.ImportScheduleRequest) bool {
					return req.Content == content &&
						req.Rate.Valid && req.Rate.Decimal.Equal(decimal.RequireFromString("3.9")) &&
						req.Frequency == domain.FrequencyMonthly &&
						req.Replace &&
						req.Notes != nil && *req.Notes == "from bank"
				})).Return(&domain.ScheduleResponse{}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing file",
			fields:         map[string]string{"rate": "3.9"},
			maxBytes:       1 << 20,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unreadable rate",
			content:        content,
			fields:         map[string]string{"rate": "three"},
			maxBytes:       1 << 20,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "upload over the limit",
			content:        strings.Repeat("2024-01-15,100\n", 200),
			maxBytes:       256,
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "file without a date column",
			content:  "Amount\n100\n",
			maxBytes: 1 << 20,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("ImportSchedule", mock.Anything, "car-loan", mock.Anything).
					Return(nil, customError.WrapNoDateColumn("amount")).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   customError.ErrCodeNoDateColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mocks.MockScheduleService)
			tt.setupMock(service)
			router := newTestRouter(service, tt.maxBytes)

			w, body := serve(router, multipartRequest(t, "/api/v1/liabilities/car-loan/schedule/import", tt.content, tt.fields))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, body.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestScheduleHandler_PreviewImport(t *testing.T) {
	content := "Date;Payment\n01/02/2024;100\n"
	service := new(mocks.MockScheduleService)
	service.On("PreviewImport", mock.Anything, content).
		Return(&domain.PreviewResponse{PeriodicPayment: decimal.NewFromInt(100)}, nil).Once()
	router := newTestRouter(service, 1<<20)

	w, _ := serve(router, multipartRequest(t, "/api/v1/schedules/import/preview", content, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestScheduleHandler_MarkPaid(t *testing.T) {
	scheduleID, paymentID := uuid.New(), uuid.New()
	path := "/api/v1/schedules/" + scheduleID.String() + "/payments/" + paymentID.String() + "/paid"

	tests := []struct {
		name           string
		path           string
		body           string
		setupMock      func(*mocks.MockScheduleService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "empty body settles the scheduled amount",
			path: path,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("MarkPaid", mock.Anything, scheduleID, paymentID, mock.MatchedBy(func(req *domain.MarkPaidRequest) bool {
					return req.ActualAmount == nil && req.ActualDate == nil
				})).Return(&domain.PaymentView{PaymentEntry: domain.PaymentEntry{Status: domain.PaymentStatusPaid}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "explicit amount and date",
			path: path,
			body: `{"actual_amount":"100.50","actual_date":"2024-03-01","notes":"partial"}`,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("MarkPaid", mock.Anything, scheduleID, paymentID, mock.MatchedBy(func(req *domain.MarkPaidRequest) bool {
					return req.ActualAmount != nil && req.ActualAmount.Equal(decimal.RequireFromString("100.50")) &&
						req.ActualDate != nil && req.ActualDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
						req.Notes != nil && *req.Notes == "partial"
				})).Return(&domain.PaymentView{}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid schedule id",
			path:           "/api/v1/schedules/not-a-uuid/payments/" + paymentID.String() + "/paid",
			setupMock:      func(m *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "already settled",
			path: path,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("MarkPaid", mock.Anything, scheduleID, paymentID, mock.Anything).
					Return(nil, customError.WrapPaymentAlreadySettled(3)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   customError.ErrCodePaymentAlreadySettled,
		},
		{
			name: "unknown payment",
			path: path,
			setupMock: func(m *mocks.MockScheduleService) {
				m.On("MarkPaid", mock.Anything, scheduleID, paymentID, mock.Anything).
					Return(nil, customError.WrapPaymentNotFound(paymentID.String())).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   customError.ErrCodePaymentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mocks.MockScheduleService)
			tt.setupMock(service)
			router := newTestRouter(service, 1<<20)

			w, body := serve(router, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, body.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestScheduleHandler_GetSchedule(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		service := new(mocks.MockScheduleService)
		service.On("GetSchedule", mock.Anything, id).
			Return(&domain.ScheduleResponse{Schedule: &domain.Schedule{ID: id}}, nil).Once()

		w, body := serve(newTestRouter(service, 1<<20), httptest.NewRequest(http.MethodGet, "/api/v1/schedules/"+id.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got domain.ScheduleResponse
		require.NoError(t, json.Unmarshal(body.Data, &got))
		assert.Equal(t, id, got.Schedule.ID)
		service.AssertExpectations(t)
	})

	t.Run("database failure hides the cause", func(t *testing.T) {
		service := new(mocks.MockScheduleService)
		service.On("GetSchedule", mock.Anything, id).
			Return(nil, customError.WrapDatabaseError(errors.New("password authentication failed"))).Once()

		w, body := serve(newTestRouter(service, 1<<20), httptest.NewRequest(http.MethodGet, "/api/v1/schedules/"+id.String(), nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, customError.ErrCodeDatabaseError, body.Code)
		assert.NotContains(t, w.Body.String(), "password")
		service.AssertExpectations(t)
	})

	t.Run("by liability", func(t *testing.T) {
		service := new(mocks.MockScheduleService)
		service.On("GetScheduleByLiability", mock.Anything, "mortgage-1").
			Return(nil, customError.WrapScheduleNotFound("liability mortgage-1")).Once()

		w, body := serve(newTestRouter(service, 1<<20), httptest.NewRequest(http.MethodGet, "/api/v1/liabilities/mortgage-1/schedule", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, customError.ErrCodeScheduleNotFound, body.Code)
		service.AssertExpectations(t)
	})
}

func TestScheduleHandler_ListPayments(t *testing.T) {
	id := uuid.New()
	service := new(mocks.MockScheduleService)
	service.On("ListPayments", mock.Anything, id).Return([]domain.PaymentView{
		{PaymentEntry: domain.PaymentEntry{SequenceNumber: 1}, Overdue: true},
		{PaymentEntry: domain.PaymentEntry{SequenceNumber: 2}},
	}, nil).Once()

	w, body := serve(newTestRouter(service, 1<<20), httptest.NewRequest(http.MethodGet, "/api/v1/schedules/"+id.String()+"/payments", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var payments []domain.PaymentView
	require.NoError(t, json.Unmarshal(body.Data, &payments))
	require.Len(t, payments, 2)
	assert.True(t, payments[0].Overdue)
	assert.False(t, payments[1].Overdue)
	service.AssertExpectations(t)
}

func TestScheduleHandler_ExportSchedule(t *testing.T) {
	id := uuid.New()
	csv := "Date,Payment,Principal,Interest,Balance\n2024-02-10,400.00,390.00,10.00,810.00\n"

	t.Run("csv download", func(t *testing.T) {
		service := new(mocks.MockScheduleService)
		service.On("ExportSchedule", mock.Anything, id, mock.Anything).Return(nil, csv).Once()

		w := httptest.NewRecorder()
		newTestRouter(service, 1<<20).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/schedules/"+id.String()+"/export", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule-"+id.String()+".csv")
		assert.Equal(t, csv, w.Body.String())
		service.AssertExpectations(t)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		service := new(mocks.MockScheduleService)
		service.On("ExportSchedule", mock.Anything, id, mock.Anything).
			Return(customError.WrapScheduleNotFound(id.String()), "").Once()

		w, body := serve(newTestRouter(service, 1<<20), httptest.NewRequest(http.MethodGet, "/api/v1/schedules/"+id.String()+"/export", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, customError.ErrCodeScheduleNotFound, body.Code)
		service.AssertExpectations(t)
	})
}

func TestScheduleHandler_DeleteSchedule(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "deleted", expectedStatus: http.StatusNoContent},
		{name: "not found", err: customError.WrapScheduleNotFound(id.String()), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mocks.MockScheduleService)
			service.On("DeleteSchedule", mock.Anything, id).Return(tt.err).Once()

			w, _ := serve(newTestRouter(service, 1<<20), httptest.NewRequest(http.MethodDelete, "/api/v1/schedules/"+id.String(), nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{customError.ErrCodeScheduleNotFound, http.StatusNotFound},
		{customError.ErrCodePaymentNotFound, http.StatusNotFound},
		{customError.ErrCodeScheduleAlreadyExists, http.StatusConflict},
		{customError.ErrCodeInvalidLoanTerms, http.StatusBadRequest},
		{customError.ErrCodeInvalidPaymentAmount, http.StatusBadRequest},
		{customError.ErrCodePaymentAlreadySettled, http.StatusUnprocessableEntity},
		{customError.ErrCodeInvalidTransition, http.StatusUnprocessableEntity},
		{customError.ErrCodeNoValidRows, http.StatusUnprocessableEntity},
		{customError.ErrCodeInconsistentLedger, http.StatusUnprocessableEntity},
		{customError.ErrCodeDatabaseError, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.code))
		})
	}
}
