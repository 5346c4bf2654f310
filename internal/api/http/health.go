package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Storage   string    `json:"storage,omitempty"`
}

type HealthHandler struct {
	serviceName  string
	version      string
	projectsRoot string
}

func NewHealthHandler(serviceName, version, projectsRoot string) *HealthHandler {
	return &HealthHandler{
		serviceName:  serviceName,
		version:      version,
		projectsRoot: projectsRoot,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storageStatus := "disabled"
	if h.projectsRoot != "" {
		if info, err := os.Stat(h.projectsRoot); err == nil && info.IsDir() {
			storageStatus = "up"
		} else {
			storageStatus = "down"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Storage:   storageStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
