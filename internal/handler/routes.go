package handler

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/amortization-engine/pkg/response"
)

// NewRouter mounts the health checks and the v1 API
func NewRouter(schedules *ScheduleHandler, health *HealthHandler, log logrus.FieldLogger) *mux.Router {
	response.SetLogger(log)

	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log), response.CORSMiddleware)

	// Health check
	if health != nil {
		router.HandleFunc("/health", health.Health).Methods("GET")
		router.HandleFunc("/health/ready", health.Ready).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/schedules/preview", schedules.PreviewSchedule).Methods("POST")
	api.HandleFunc("/schedules/import/preview", schedules.PreviewImport).Methods("POST")
	api.HandleFunc("/schedules/{scheduleId}", schedules.GetSchedule).Methods("GET")
	api.HandleFunc("/schedules/{scheduleId}", schedules.DeleteSchedule).Methods("DELETE")
	api.HandleFunc("/schedules/{scheduleId}/payments", schedules.ListPayments).Methods("GET")
	api.HandleFunc("/schedules/{scheduleId}/export", schedules.ExportSchedule).Methods("GET")
	api.HandleFunc("/schedules/{scheduleId}/payments/{paymentId}/paid", schedules.MarkPaid).Methods("POST")

	api.HandleFunc("/liabilities/{liabilityId}/schedule", schedules.GenerateSchedule).Methods("POST")
	api.HandleFunc("/liabilities/{liabilityId}/schedule", schedules.GetScheduleByLiability).Methods("GET")
	api.HandleFunc("/liabilities/{liabilityId}/schedule/import", schedules.ImportSchedule).Methods("POST")

	return router
}
