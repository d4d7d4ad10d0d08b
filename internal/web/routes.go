package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/classtrack/faceattend/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	matchHandler := handlers.NewMatchHandler(s.deps.Matcher)
	enrollHandler := handlers.NewEnrollHandler(s.deps.Enroller)
	cachesHandler := handlers.NewCachesHandler(s.deps.Identities, s.deps.Candidates)
	identitiesHandler := handlers.NewIdentitiesHandler(s.deps.Registry)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Ledger, s.deps.BatchID)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Matching
		r.Post("/match", matchHandler.Match)

		// Enrollment
		r.Post("/enroll/sample", enrollHandler.AddSample)
		r.Post("/enroll/commit", enrollHandler.Commit)
		r.Get("/enroll/status", enrollHandler.Status)
		r.Post("/enroll/reset", enrollHandler.Reset)

		// Caches
		r.Get("/caches/stats", cachesHandler.Stats)
		r.Post("/caches/reset", cachesHandler.Reset)

		// Registry
		r.Get("/identities", identitiesHandler.List)

		// Attendance
		r.Get("/attendance", attendanceHandler.List)
	})
}
