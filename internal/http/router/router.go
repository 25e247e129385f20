// Package router wires the handlers, the operational endpoints, and the
// middleware into a single http.Handler.
//
// Route table:
//
//	POST   /students               → create a new student
//	GET    /students               → list students (?country=&age=)
//	GET    /students/{id}          → get one student by ID
//	PATCH  /students/{id}          → partially update a student
//	DELETE /students/{student_id}  → delete a student
//	GET    /healthz                → store reachability
//	GET    /metrics                → Prometheus metrics
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records-api/internal/http/middleware"
	"github.com/aanand-mishra/student-records-api/internal/metrics"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// New builds the application handler. m may be nil, in which case no
// metrics are recorded and /metrics is not registered.
func New(store storage.Storage, log *slog.Logger, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /students", student.New(store))
	mux.HandleFunc("GET /students", student.GetList(store))
	mux.HandleFunc("GET /students/{id}", student.GetByID(store))
	mux.HandleFunc("PATCH /students/{id}", student.Update(store))
	mux.HandleFunc("DELETE /students/{student_id}", student.Delete(store))

	mux.HandleFunc("GET /healthz", health(store))

	mws := []func(http.Handler) http.Handler{middleware.RequestID, middleware.Logger(log)}
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
		mws = append(mws, middleware.Metrics(m))
	}

	return middleware.Chain(mux, mws...)
}

func health(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
