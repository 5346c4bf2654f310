package http

import (
	"time"

	"github.com/rhulha/WebTracker/internal/projects/service"
)

// opTimeout bounds every store operation issued from a handler; expiry is a
// transient failure the client can retry.
const opTimeout = 30 * time.Second

// Handler bundles the dependencies for project HTTP endpoints.
type Handler struct {
	svc *service.ProjectService
}

func New(svc *service.ProjectService) *Handler {
	return &Handler{svc: svc}
}
