package media

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/pkg/pagination"
	"github.com/tablecast/signage/internal/pkg/response"
)

// base64 grows payloads by 4/3; leave headroom for the JSON envelope.
const envelopeSlack = 1 << 20

type Handler struct {
	pipeline   *Pipeline
	reconciler *Reconciler
	businesses *business.Service
	minAge     time.Duration
}

func NewHandler(pipeline *Pipeline, reconciler *Reconciler, businesses *business.Service, minAge time.Duration) *Handler {
	return &Handler{pipeline: pipeline, reconciler: reconciler, businesses: businesses, minAge: minAge}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/media")
	g.GET("/signed-url", h.signedURL)

	a := g.Group("", authMW)
	a.POST("/upload", h.upload)
	a.GET("", h.list)
	a.DELETE("/:id", h.delete)
}

// RegisterAdminRoutes mounts operator endpoints on an admin-guarded group.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/media/reconcile", h.reconcile)
}

func (h *Handler) upload(c *gin.Context) {
	limit := h.pipeline.opts.MaxUploadBytes*4/3 + envelopeSlack
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid upload body: "+err.Error())
		return
	}
	actor := business.ActorFrom(c)
	if _, err := h.businesses.Authorize(c.Request.Context(), actor, req.BusinessID); err != nil {
		response.Error(c, err)
		return
	}
	req.UploaderID = actor.UserID

	res, err := h.pipeline.Upload(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

func (h *Handler) signedURL(c *gin.Context) {
	signed, err := h.pipeline.SignedURL(c.Request.Context(), c.Query("path"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, signedURLResponse{URL: signed.URL, FilePath: signed.FilePath, ExpiresAt: signed.ExpiresAt})
}

func (h *Handler) list(c *gin.Context) {
	businessID := c.Query("businessId")
	if _, err := h.businesses.Authorize(c.Request.Context(), business.ActorFrom(c), businessID); err != nil {
		response.Error(c, err)
		return
	}
	items, page, err := h.pipeline.List(c.Request.Context(), businessID, pagination.FromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, page)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.pipeline.Delete(c.Request.Context(), business.ActorFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) reconcile(c *gin.Context) {
	apply, _ := strconv.ParseBool(c.Query("apply"))
	report, err := h.reconciler.Sweep(c.Request.Context(), SweepOptions{
		Apply:  apply,
		MinAge: h.minAge,
		Prefix: c.Query("prefix"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
