package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/docker/itemd/pkg/api"
	"github.com/docker/itemd/pkg/service"
	"github.com/docker/itemd/pkg/store"
)

const (
	// APIPrefix is the versioned mount point. Routes are also served at
	// the root.
	APIPrefix = "/api/v1"

	DefaultShutdownTimeout = 5 * time.Second
)

type Server struct {
	e               *echo.Echo
	items           *service.Service
	shutdownTimeout time.Duration
}

type Opt func(*Server)

func WithShutdownTimeout(d time.Duration) Opt {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

func New(items *service.Service, opts ...Opt) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())

	s := &Server{
		e:               e,
		items:           items,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes(e.Group(""))
	s.routes(e.Group(APIPrefix))

	return s
}

func (s *Server) routes(group *echo.Group) {
	// List all items
	group.GET("/item", s.listItems)
	// Get an item by id
	group.GET("/item/:id", s.getItem)
	// Create a new item
	group.POST("/item", s.createItem)
	// Merge fields into an item
	group.PUT("/item/:id", s.updateItem)
	// Set the completion state of an item
	group.PATCH("/item/:id/toggle", s.toggleItem)
	// Delete an item
	group.DELETE("/item/:id", s.deleteItem)

	group.GET("/hello", func(c echo.Context) error {
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Hello World!"})
	})

	// Health check endpoint
	group.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, api.StatusResponse{Status: "ok"})
	})
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for at most the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.e,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	stop := make(chan struct{})
	shutdownDone := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			shutdownDone <- nil
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdownDone <- srv.Shutdown(shutdownCtx)
	}()

	// Serve returns as soon as Shutdown starts; the drain finishes in
	// the goroutine above.
	serveErr := srv.Serve(ln)
	close(stop)
	shutdownErr := <-shutdownDone

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) && ctx.Err() == nil {
		slog.Error("Failed to start server", "error", serveErr)
		return serveErr
	}
	if shutdownErr != nil {
		slog.Warn("Server shutdown did not complete", "error", shutdownErr)
		return fmt.Errorf("shutting down server: %w", shutdownErr)
	}

	return nil
}

func (s *Server) listItems(c echo.Context) error {
	items, err := s.items.List(c.Request().Context())
	if err != nil {
		return internalError("failed to list items", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) getItem(c echo.Context) error {
	it, found, err := s.items.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internalError("failed to get item", err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, it)
}

func (s *Server) createItem(c echo.Context) error {
	var req api.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	it, err := s.items.Create(c.Request().Context(), req)
	if err != nil {
		return internalError("failed to create item", err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (s *Server) updateItem(c echo.Context) error {
	var req api.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	it, found, err := s.items.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return internalError("failed to update item", err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, it)
}

func (s *Server) toggleItem(c echo.Context) error {
	var req api.ToggleItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	if req.IsComplete == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: isComplete is required")
	}

	it, found, err := s.items.SetCompletion(c.Request().Context(), c.Param("id"), *req.IsComplete)
	if err != nil {
		return internalError("failed to toggle item", err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, it)
}

func (s *Server) deleteItem(c echo.Context) error {
	deleted, err := s.items.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internalError("failed to delete item", err)
	}
	if !deleted {
		return notFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, api.MessageResponse{Message: api.ItemNotFound})
}

func badRequest(err error) error {
	msg := err.Error()
	if he, ok := errors.AsType[*echo.HTTPError](err); ok {
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+msg)
}

// internalError logs a service failure and hides its details behind a 500.
func internalError(msg string, err error) error {
	if corrupt, ok := errors.AsType[*store.CorruptStoreError](err); ok {
		slog.Error(msg, "error", err, "store", corrupt.Path, "corrupt", true)
	} else {
		slog.Error(msg, "error", err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, msg).SetInternal(err)
}
