// Package report serves a read-only view over the persisted schema. It never
// writes: the pipeline is the only writer.
package report

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/amitkr/jobmail/internal/store"
)

// Server is the report HTTP API.
type Server struct {
	app    *fiber.App
	store  *store.SQLiteStore
	logger *slog.Logger
}

// NewServer builds the fiber app and registers routes.
func NewServer(st *store.SQLiteStore, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "jobmail report",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{app: app, store: st, logger: logger}
	app.Get("/applications", s.listApplications)
	app.Get("/stats", s.stats)
	return s
}

// Listen blocks serving on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("report server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// applicationsResponse is the /applications payload.
type applicationsResponse struct {
	Rows     []store.ApplicationView `json:"rows"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
	HasPrev  bool                    `json:"has_prev"`
	HasNext  bool                    `json:"has_next"`
}

func (s *Server) listApplications(c *fiber.Ctx) error {
	f := filterFromQuery(c)

	rows, total, err := s.store.ListApplications(c.Context(), f)
	if err != nil {
		s.logger.Error("list applications failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "query failed")
	}

	if rows == nil {
		rows = []store.ApplicationView{}
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize == 0 {
		pageSize = 50
	}
	return c.JSON(applicationsResponse{
		Rows:     rows,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
		HasNext:  (page-1)*pageSize+len(rows) < total,
	})
}

func (s *Server) stats(c *fiber.Ctx) error {
	counts, err := s.store.StatusCounts(c.Context(), filterFromQuery(c))
	if err != nil {
		s.logger.Error("status counts failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "query failed")
	}
	if counts == nil {
		counts = []store.StatusCount{}
	}
	return c.JSON(fiber.Map{"counts": counts})
}

// filterFromQuery maps query parameters onto a store filter. Unparseable
// numbers fall back to defaults rather than erroring.
func filterFromQuery(c *fiber.Ctx) store.ApplicationFilter {
	var exclude []string
	for _, s := range strings.Split(c.Query("exclude"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			exclude = append(exclude, s)
		}
	}

	hide := false
	switch c.Query("hide_unknown") {
	case "1", "true", "yes", "on":
		hide = true
	}

	return store.ApplicationFilter{
		Status:      strings.TrimSpace(c.Query("status")),
		Exclude:     exclude,
		HideUnknown: hide,
		Sort:        c.Query("sort", "date"),
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("page_size", 50),
	}
}
