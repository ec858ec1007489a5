package slide

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/pkg/pagination"
	"github.com/tablecast/signage/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/slides", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/order", h.reorder)
	g.POST("/from-fact", h.fromFact)
	g.GET("/:id", h.get)
	g.GET("/:id/preview", h.preview)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

// RegisterAdminRoutes mounts the lock-bypassing edit path and the lock toggle.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.PUT("/slides/:id", h.adminUpdate)
	admin.PATCH("/slides/:id/lock", h.setLocked)
}

func (h *Handler) list(c *gin.Context) {
	templates, _ := strconv.ParseBool(c.Query("templates"))
	inactive, _ := strconv.ParseBool(c.Query("inactive"))
	items, page, err := h.svc.List(c.Request.Context(), business.ActorFrom(c), ListQuery{
		RestaurantID:     c.Query("restaurantId"),
		IncludeTemplates: templates,
		IncludeInactive:  inactive,
	}, pagination.FromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, page)
}

func (h *Handler) get(c *gin.Context) {
	sl, err := h.svc.Get(c.Request.Context(), business.ActorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sl)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sl, err := h.svc.Create(c.Request.Context(), business.ActorFrom(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sl)
}

func (h *Handler) update(c *gin.Context)      { h.doUpdate(c, false) }
func (h *Handler) adminUpdate(c *gin.Context) { h.doUpdate(c, true) }

func (h *Handler) doUpdate(c *gin.Context, override bool) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sl, err := h.svc.Update(c.Request.Context(), business.ActorFrom(c), c.Param("id"), &dto, override)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sl)
}

func (h *Handler) setLocked(c *gin.Context) {
	var dto LockDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sl, err := h.svc.SetLocked(c.Request.Context(), business.ActorFrom(c), c.Param("id"), *dto.Locked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sl)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), business.ActorFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) reorder(c *gin.Context) {
	var dto ReorderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Reorder(c.Request.Context(), business.ActorFrom(c), dto.RestaurantID, dto.IDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fromFact(c *gin.Context) {
	var req FactSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sl, err := h.svc.CreateFromFact(c.Request.Context(), business.ActorFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sl)
}

func (h *Handler) preview(c *gin.Context) {
	svg, err := h.svc.PreviewSVG(c.Request.Context(), business.ActorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(svg))
}
