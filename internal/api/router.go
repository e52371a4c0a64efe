package api

import (
	"context"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/metrics"
	"crane-booking-backend/internal/mw"
	"crane-booking-backend/internal/store"
)

// Deps are the collaborators the router wires into handlers and middleware.
type Deps struct {
	Engine        *booking.Engine
	Subscriptions store.SubscriptionStore
	Auth          *mw.Authenticator
	Metrics       *metrics.Metrics
	WebPush       *webpush.Options
	RateLimit     rate.Limit
	RateBurst     int
	// CacheTTL of zero disables response caching.
	CacheTTL time.Duration
	// Ping checks the database for /healthz. Optional.
	Ping func(ctx context.Context) error
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(mw.RequestID(), mw.Metrics(d.Metrics))

	handler := NewHandler(d.Engine, d.Subscriptions, d.WebPush)

	r.GET("/healthz", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	if d.RateLimit <= 0 {
		d.RateLimit = rate.Limit(10)
	}
	if d.RateBurst <= 0 {
		d.RateBurst = 5
	}

	caching := func(c *gin.Context) { c.Next() }
	invalidate := caching
	if d.CacheTTL > 0 {
		rc := mw.NewResponseCache(d.CacheTTL)
		caching = rc.Handler()
		invalidate = rc.Invalidate()
	}

	// The VAPID key is public; browsers fetch it before signing in.
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)

	api := r.Group("/api")
	api.Use(mw.Auth(d.Auth), mw.RateLimiter(d.RateLimit, d.RateBurst), invalidate)
	{
		api.GET("/resources", caching, handler.ListResources)
		api.POST("/resources", handler.CreateResource)
		api.PATCH("/resources/:id", handler.UpdateResource)
		api.POST("/resources/:id/deactivate", handler.DeactivateResource)
		api.GET("/resources/:id/slots", caching, handler.GetSlots)
		api.POST("/resources/:id/maintenance", handler.CreateMaintenance)
		api.DELETE("/maintenance/:id", handler.DeleteMaintenance)

		api.GET("/load-profiles", handler.ListLoadProfiles)
		api.POST("/load-profiles", handler.CreateLoadProfile)

		api.GET("/reservations", handler.ListReservations)
		api.POST("/reservations", handler.CreateReservation)
		api.GET("/reservations/:id", handler.GetReservation)
		api.POST("/reservations/:id/approve", handler.ApproveReservation)
		api.POST("/reservations/:id/reject", handler.RejectReservation)
		api.POST("/reservations/:id/cancel", handler.CancelReservation)
		api.POST("/reservations/:id/complete", handler.CompleteReservation)
		api.POST("/reservations/:id/reschedule", handler.RescheduleReservation)

		api.GET("/waiting-list", handler.ListWaitingList)
		api.POST("/waiting-list", handler.JoinWaitingList)
		api.POST("/waiting-list/:id/promote", handler.PromoteWaitingEntry)

		api.GET("/calendar", caching, handler.GetCalendar)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}
