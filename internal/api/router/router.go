// Package router wires the portal's HTTP surface onto chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-portal/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-portal/internal/http/middleware"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Health             *handlers.HealthHandler
	PortalBooking      *handlers.PortalBookingHandler
	Appointments       *handlers.AppointmentsHandler
	AdminNotifications *handlers.AdminNotificationsHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// PortalRateLimit throttles the patient-facing endpoints per IP.
	// Zero disables throttling.
	PortalRateLimit float64
	PortalRateBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Health)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Patient-facing portal endpoints.
	if cfg.PortalBooking != nil || cfg.Appointments != nil {
		r.Route("/portal", func(portal chi.Router) {
			if cfg.PortalRateLimit > 0 {
				burst := cfg.PortalRateBurst
				if burst <= 0 {
					burst = 10
				}
				portal.Use(httpmiddleware.RateLimit(cfg.PortalRateLimit, burst))
			}
			if cfg.PortalBooking != nil {
				portal.Get("/eligibility", cfg.PortalBooking.GetEligibility)
				portal.Get("/availability", cfg.PortalBooking.GetAvailability)
				portal.Post("/appointments", cfg.PortalBooking.CreateAppointment)
			}
			if cfg.Appointments != nil {
				portal.Post("/appointments/{appointmentID}/cancel", cfg.Appointments.CancelAppointment)
			}
		})
	}

	// Admin endpoints behind JWT auth.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.Appointments != nil {
			admin.Post("/appointments/{appointmentID}/status", cfg.Appointments.UpdateStatus)
			admin.Post("/appointments/{appointmentID}/reject", cfg.Appointments.RejectAppointment)
			admin.Post("/appointments/{appointmentID}/remind", cfg.Appointments.Remind)
		}
		if cfg.AdminNotifications != nil {
			admin.Get("/notifications/failed", cfg.AdminNotifications.ListFailed)
			admin.Post("/notifications/{attemptID}/retry", cfg.AdminNotifications.Retry)
		}
	})

	return r
}
