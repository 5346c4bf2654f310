package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register attaches the project API to the given router group, matching the
// original sequencer front-end's routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/create-project", h.create)

	p := rg.Group("/project/:project_id")
	p.Use(h.requireProject())
	p.GET("/info", h.info)
	p.POST("/upload", h.upload)
	p.GET("/samples/:filename", h.sample)
	p.POST("/save-pattern", h.savePattern)
	p.GET("/load-pattern", h.loadPattern)
	p.GET("/history", h.history)
}

// requireProject rejects requests for unknown projects before the handler
// runs, so every project route shares one existence check.
func (h *Handler) requireProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.svc.Exists(c.Param("project_id")) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.Next()
	}
}
