package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atlas-bank/atlas_core/internal/scheduler"
)

// RegisterOperationRoutes adds the operational endpoints driving the
// scheduler. run-schedules fires every timer due at or before as_of
// (defaulting to now), which is also how tests and backfills advance
// contract time.
func RegisterOperationRoutes(api fiber.Router, sched *scheduler.Service) {
	api.Post("/operations/run-schedules", func(c *fiber.Ctx) error {
		asOf := time.Now().UTC()
		if raw := c.Query("as_of"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, "as_of must be RFC 3339")
			}
			asOf = parsed.UTC()
		}
		fired, err := sched.RunDue(c.UserContext(), asOf)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"fired": fired, "as_of": asOf.Format(time.RFC3339)})
	})

	api.Get("/operations/schedules", func(c *fiber.Ctx) error {
		entries := sched.Entries()
		out := make([]fiber.Map, 0, len(entries))
		for _, entry := range entries {
			owner := entry.AccountID
			scope := "account"
			if entry.PlanID != "" {
				owner = entry.PlanID
				scope = "plan"
			}
			out = append(out, fiber.Map{
				"scope":     scope,
				"owner_id":  owner,
				"kind":      string(entry.Kind),
				"next_fire": entry.NextFire.Format(time.RFC3339),
			})
		}
		return c.JSON(fiber.Map{"schedules": out})
	})
}
