package handlers

import (
	"time"

	"cafeorders/internal/domain"
	"cafeorders/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
}

func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	g, err := services.ParseGranularity(c.Query("granularity"))
	if err != nil {
		return respondError(c, "analytics.report", err)
	}
	rep, err := h.Analytics.Report(c.UserContext(), g)
	if err != nil {
		return respondError(c, "analytics.report", err)
	}
	return c.JSON(rep)
}

// Summary serves the completed-order day series over an optional range.
// Bounds are RFC 3339 instants or calendar dates; a date "to" covers the whole day.
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	from, err := parseBound(c.Query("from"), h.Analytics.Loc, false)
	if err != nil {
		return respondError(c, "analytics.summary", domain.Invalid("from", "must be RFC 3339 or YYYY-MM-DD"))
	}
	to, err := parseBound(c.Query("to"), h.Analytics.Loc, true)
	if err != nil {
		return respondError(c, "analytics.summary", domain.Invalid("to", "must be RFC 3339 or YYYY-MM-DD"))
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return respondError(c, "analytics.summary", domain.Invalid("to", "must not be before from"))
	}
	sum, err := h.Analytics.Summary(c.UserContext(), from, to)
	if err != nil {
		return respondError(c, "analytics.summary", err)
	}
	return c.JSON(sum)
}

func parseBound(s string, loc *time.Location, end bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return d, nil
}
