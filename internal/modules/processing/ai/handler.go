package ai

import (
	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/slides/ai-all-in-one", authMW, h.generateSlides)

	g := rg.Group("/ai", authMW)
	g.POST("/facts", h.generateFacts)
	g.POST("/description", h.generateDescription)
}

func (h *Handler) generateSlides(c *gin.Context) {
	var dto slidesRequest
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	slides, err := h.svc.GenerateSlides(c.Request.Context(), dto.Prompt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, slides)
}

func (h *Handler) generateFacts(c *gin.Context) {
	var dto FactsRequest
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	facts, err := h.svc.GenerateFacts(c.Request.Context(), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, facts)
}

func (h *Handler) generateDescription(c *gin.Context) {
	var dto DescriptionRequest
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	desc, err := h.svc.GenerateDescription(c.Request.Context(), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, descriptionResponse{Description: desc})
}
