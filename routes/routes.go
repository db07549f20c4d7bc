package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/oumpowerman/thaoshare/controllers/bidding"
	"github.com/oumpowerman/thaoshare/controllers/circle"
	"github.com/oumpowerman/thaoshare/controllers/member"
	"github.com/oumpowerman/thaoshare/controllers/notification"
	"github.com/oumpowerman/thaoshare/controllers/payment"
	"github.com/oumpowerman/thaoshare/controllers/report"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	JWTSecret string
	Members   middlewares.MemberLookup
	Health    Pinger
	Gatherer  prometheus.Gatherer
	// UploadDir is served at UploadURL when slips are stored locally.
	UploadDir string
	UploadURL string

	Circles       *services.CircleService
	MemberSvc     *services.MemberService
	Settlement    *services.SettlementService
	Payments      *services.PaymentService
	Reports       *services.ReportService
	Notifications *services.NotificationService
}

func Setup(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if d.Health != nil {
			if err := d.Health.Ping(c.UserContext()); err != nil {
				return helpers.JSONErrorStatus(c, fiber.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "")
			}
		}
		return helpers.JSONSuccess(c, "OK", nil)
	})
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	if d.UploadDir != "" && d.UploadURL != "" {
		app.Static(d.UploadURL, d.UploadDir)
	}

	circles := &circle.Handler{Circles: d.Circles}
	bids := &bidding.Handler{Settlement: d.Settlement}
	members := &member.Handler{Members: d.MemberSvc}
	payments := &payment.Handler{Payments: d.Payments}
	reports := &report.Handler{Reports: d.Reports}
	notes := &notification.Handler{Notifications: d.Notifications}

	api := app.Group("/api", middlewares.MemberAuth(d.JWTSecret, d.Members))
	admin := middlewares.RequireAdmin()

	//members
	api.Post("/members", admin, members.Register)
	api.Get("/members", admin, members.List)
	api.Patch("/members/:id/status", admin, members.SetStanding)
	api.Get("/members/:id/summary", admin, members.Summary)
	api.Get("/members/:id/wins", members.Wins)

	api.Get("/me", members.Me)
	api.Put("/me", members.UpdateMe)
	api.Get("/me/summary", members.MySummary)
	api.Get("/me/upcoming", members.MyUpcoming)

	//circles
	api.Get("/circles", circles.List)
	api.Post("/circles", admin, circles.Create)
	api.Get("/circles/:id", circles.Get)
	api.Delete("/circles/:id", admin, circles.Delete)

	//bidding
	api.Post("/circles/:id/preview", admin, bids.Preview)
	api.Post("/circles/:id/settle", admin, bids.Settle)

	//payments
	api.Post("/circles/:id/payments", payments.Submit)
	api.Get("/circles/:id/collection", admin, payments.Collection)
	api.Get("/circles/:id/rounds/:round/reconciliation", admin, payments.Reconcile)
	api.Get("/transactions", payments.List)

	api.Get("/reports/dashboard", admin, reports.Dashboard)

	api.Get("/notifications", notes.List)
	api.Post("/notifications/read", notes.MarkAllRead)
}
