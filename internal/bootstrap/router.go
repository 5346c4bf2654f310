package bootstrap

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/rhulha/WebTracker/internal/api/http"
	"github.com/rhulha/WebTracker/internal/api/http/middleware"
	projecthttp "github.com/rhulha/WebTracker/internal/projects/http"
	"github.com/rhulha/WebTracker/internal/projects/service"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	ProjectsRoot string
	CORSOrigins  string
	// RateLimitRPS enables the per-IP limiter when positive.
	RateLimitRPS   int
	RateLimitBurst int
	Service        *service.ProjectService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(corsMiddleware(dep.CORSOrigins))
	if dep.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(float64(dep.RateLimitRPS), dep.RateLimitBurst))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.ProjectsRoot)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")
	projecthttp.New(dep.Service).Register(api)

	return r
}

func corsMiddleware(origins string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if origins == "" || origins == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "X-Request-Id")
	return cors.New(cfg)
}
