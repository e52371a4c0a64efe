package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  *booking.Engine
	subs    store.SubscriptionStore
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(engine *booking.Engine, subs store.SubscriptionStore, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		engine:  engine,
		subs:    subs,
		webpush: webpushOptions,
	}
}

// respondError renders err as {"code","message","details"}. Errors without a
// kind are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    apperr.KindInternal,
			"message": "internal error",
		})
		return
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(appErr.Kind), appErr)
}

// bindJSON decodes the body, answering 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperr.Validation("invalid request: %v", err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid %s %q", key, raw)
	}
	return v, nil
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.Validation("%s must be RFC 3339, got %q", key, raw)
	}
	return t.UTC(), nil
}

func queryStatuses(c *gin.Context) []model.ReservationStatus {
	raw := c.Query("status")
	if raw == "" {
		return nil
	}
	var statuses []model.ReservationStatus
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, model.ReservationStatus(s))
		}
	}
	return statuses
}
