package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhulha/WebTracker/internal/projects/domain"
)

func (h *Handler) create(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), opTimeout)
	defer cancel()

	p, err := h.svc.Create(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id":   p.ID,
		"redirect_url": "/project/" + p.ID,
	})
}

func (h *Handler) info(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), opTimeout)
	defer cancel()

	info, err := h.svc.Info(ctx, c.Param("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) upload(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), opTimeout)
	defer cancel()

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	src, err := file.Open()
	if err != nil {
		writeError(c, &domain.StorageError{Op: "open upload", Err: err})
		return
	}
	defer src.Close()

	entry, err := h.svc.Upload(ctx, c.Param("project_id"), file.Filename, src, file.Size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "File uploaded successfully",
		"filename": entry.Filename,
	})
}

func (h *Handler) sample(c *gin.Context) {
	path, err := h.svc.SamplePath(c.Param("project_id"), c.Param("filename"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.File(path)
}

type savePatternReq struct {
	Pattern json.RawMessage `json:"pattern"`
	BPM     *int            `json:"bpm"`
}

func (h *Handler) savePattern(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), opTimeout)
	defer cancel()

	var req savePatternReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Pattern) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	bpm := domain.DefaultBPM
	if req.BPM != nil {
		bpm = *req.BPM
	}

	if err := h.svc.SavePattern(ctx, c.Param("project_id"), req.Pattern, bpm); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pattern saved successfully"})
}

func (h *Handler) loadPattern(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), opTimeout)
	defer cancel()

	state, err := h.svc.LoadPattern(ctx, c.Param("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) history(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), opTimeout)
	defer cancel()

	entries, err := h.svc.History(ctx, c.Param("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": entries})
}

// writeError maps domain errors to HTTP statuses: client-fixable conditions
// get 400, absence 404, ID collision 409, everything else is an
// infrastructure failure worth retrying.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, domain.ErrSampleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Sample not found"})
	case errors.Is(err, domain.ErrProjectExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Project already exists"})
	case errors.Is(err, domain.ErrNoFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
	case errors.Is(err, domain.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
	case errors.Is(err, domain.ErrQuotaExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project size limit exceeded (10MB)"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Operation timed out, retry"})
	default:
		log.Printf("[error] path=%s err=%v", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage failure"})
	}
}
