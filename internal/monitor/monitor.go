// Package monitor exposes the live state of the current array dispatch over
// a small read-only HTTP surface, so an operator can watch a long workflow
// without touching the log files.
package monitor

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"geoflow/array-engine/internal/dispatch"
)

// Source provides dispatch state snapshots.
type Source interface {
	Snapshot() dispatch.State
}

// Server serves dispatch state. Read-only: it never mutates the dispatcher.
type Server struct {
	app  *fiber.App
	src  Source
	addr string
	log  *zap.Logger
}

// New creates a monitor server bound to addr, e.g. ":8089".
func New(src Source, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{app: app, src: src, addr: addr, log: log}

	app.Get("/status", s.handleStatus)
	app.Get("/tasks", s.handleTasks)

	return s
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := s.src.Snapshot()
	return c.JSON(fiber.Map{
		"dispatch_id": st.DispatchID,
		"backend":     st.Backend,
		"total":       st.Total,
		"running":     st.Running,
		"max_running": st.MaxRunning,
		"completed":   len(st.Completed),
		"failed_ids":  st.FailedIDs,
		"started_at":  st.StartedAt,
		"done":        st.Done,
	})
}

func (s *Server) handleTasks(c *fiber.Ctx) error {
	return c.JSON(s.src.Snapshot().Completed)
}

// Start serves in a background goroutine until Shutdown.
func (s *Server) Start() {
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			s.log.Warn("monitor server stopped", zap.Error(err))
		}
	}()
	s.log.Info("monitor listening", zap.String("addr", s.addr))
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
