// Package api exposes the thin HTTP surface: enumeration of sources,
// templates and folders, mapping-configuration CRUD, preview rendering and
// batch kickoff. All design content lives below in the engine packages.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/configstore"
	"github.com/oakrise/docstamp/internal/datasource"
	"github.com/oakrise/docstamp/internal/docstore"
	"github.com/oakrise/docstamp/internal/generation"
	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/internal/preview"
)

// Handler serves the HTTP API.
type Handler struct {
	source    datasource.Source
	documents docstore.Store
	configs   configstore.Store
	previews  *preview.Renderer
	service   *generation.Service
	logger    *zap.Logger
}

// NewHandler creates an API handler.
func NewHandler(
	source datasource.Source,
	documents docstore.Store,
	configs configstore.Store,
	previews *preview.Renderer,
	service *generation.Service,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		source:    source,
		documents: documents,
		configs:   configs,
		previews:  previews,
		service:   service,
		logger:    logger,
	}
}

// Register mounts the API routes.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/sources", h.listSources)
		api.GET("/sources/:id", h.describeSource)

		api.GET("/templates", h.listTemplates)
		api.GET("/templates/:id/preview", h.previewTemplate)

		api.GET("/folders", h.listFolders)
		api.POST("/folders", h.createFolder)

		api.GET("/configs", h.listConfigs)
		api.POST("/configs", h.saveConfig)
		api.GET("/configs/:name", h.loadConfig)
		api.DELETE("/configs/:name", h.deleteConfig)

		api.POST("/generate", h.generate)
	}
}

func (h *Handler) listSources(c *gin.Context) {
	sources, err := h.source.ListSources(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (h *Handler) describeSource(c *gin.Context) {
	detail, err := h.source.Describe(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) listTemplates(c *gin.Context) {
	templates, err := h.documents.ListTemplates(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *Handler) previewTemplate(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
		return
	}
	dpi, err := strconv.ParseFloat(c.DefaultQuery("dpi", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dpi must be a number"})
		return
	}

	templateBytes, err := h.documents.FetchTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	img, err := h.previews.RenderPage(templateBytes, page, dpi)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (h *Handler) listFolders(c *gin.Context) {
	folders, err := h.documents.ListFolders(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (h *Handler) createFolder(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		ParentID string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder, err := h.documents.CreateFolder(c.Request.Context(), req.Name, req.ParentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (h *Handler) listConfigs(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

func (h *Handler) saveConfig(c *gin.Context) {
	var set mapping.MappingSet
	if err := c.ShouldBindJSON(&set); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.configs.Save(c.Request.Context(), &set); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": set.Name})
}

func (h *Handler) loadConfig(c *gin.Context) {
	set, err := h.configs.Load(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *Handler) deleteConfig(c *gin.Context) {
	if err := h.configs.Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) generate(c *gin.Context) {
	var req generation.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// fail maps engine errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, configstore.ErrNotFound),
		errors.Is(err, docstore.ErrTemplateNotFound),
		errors.Is(err, datasource.ErrSourceNotFound),
		errors.Is(err, datasource.ErrSheetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, mapping.ErrInvalidMapping):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
