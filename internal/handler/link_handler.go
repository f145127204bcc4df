package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Batmad01/url-shortener/internal/domain"
	"github.com/Batmad01/url-shortener/internal/middleware"
	"github.com/Batmad01/url-shortener/pkg/response"
	"github.com/Batmad01/url-shortener/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LinkService interface {
	Create(ctx context.Context, req *domain.CreateLinkRequest, ownerID *uuid.UUID) (*domain.ShortLink, error)
	Resolve(ctx context.Context, shortCode string) (*domain.ShortLink, error)
	Stats(ctx context.Context, shortCode string) (*domain.LinkView, error)
	Update(ctx context.Context, shortCode string, req *domain.UpdateLinkRequest, requesterID uuid.UUID) (*domain.ShortLink, error)
	Delete(ctx context.Context, shortCode string, requesterID uuid.UUID) (*domain.ShortLink, error)
	Search(ctx context.Context, originalURL string) (*domain.LinkView, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.ShortLink, error)
}

type LinkHandler struct {
	service LinkService
	baseURL string
}

func NewLinkHandler(service LinkService, baseURL string) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
	}
}

type linkResponse struct {
	domain.LinkView
	ShortURL string `json:"short_url"`
}

func (h *LinkHandler) linkResponse(link *domain.ShortLink) linkResponse {
	return linkResponse{
		LinkView: *link.View(),
		ShortURL: h.baseURL + "/links/" + link.ShortCode,
	}
}

// Shorten creates a link owned by the authenticated caller.
func (h *LinkHandler) Shorten(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required")
		return
	}

	req, ok := bindCreateRequest(c)
	if !ok {
		return
	}

	link, err := h.service.Create(c.Request.Context(), req, &ownerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.linkResponse(link))
}

// ShortenPublic creates an anonymous link. Such links cannot be updated or
// deleted afterwards.
func (h *LinkHandler) ShortenPublic(c *gin.Context) {
	req, ok := bindCreateRequest(c)
	if !ok {
		return
	}

	link, err := h.service.Create(c.Request.Context(), req, nil)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.linkResponse(link))
}

// Redirect resolves a short code to its destination. Expired links are
// reported as not found even before the sweeper removes them.
func (h *LinkHandler) Redirect(c *gin.Context) {
	shortCode := c.Param("shortCode")

	link, err := h.service.Resolve(c.Request.Context(), shortCode)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, link.OriginalURL)
}

// Stats returns the link view, possibly served from the cache.
func (h *LinkHandler) Stats(c *gin.Context) {
	shortCode := c.Param("shortCode")

	view, err := h.service.Stats(c.Request.Context(), shortCode)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *LinkHandler) Update(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req domain.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if errs := validator.Validate(&req); len(errs) > 0 {
		response.ValidationErrors(c, errs)
		return
	}

	link, err := h.service.Update(c.Request.Context(), c.Param("shortCode"), &req, ownerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.linkResponse(link))
}

func (h *LinkHandler) Delete(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required")
		return
	}

	link, err := h.service.Delete(c.Request.Context(), c.Param("shortCode"), ownerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.linkResponse(link))
}

// Search finds a link by its original URL. No match responds 200 with a
// null body, not 404.
func (h *LinkHandler) Search(c *gin.Context) {
	originalURL := c.Query("original_url")
	if originalURL == "" {
		response.BadRequest(c, "original_url query parameter is required")
		return
	}

	view, err := h.service.Search(c.Request.Context(), originalURL)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *LinkHandler) ListUserLinks(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required")
		return
	}

	links, err := h.service.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	views := make([]domain.LinkView, 0, len(links))
	for i := range links {
		views = append(views, *links[i].View())
	}

	c.JSON(http.StatusOK, views)
}

func bindCreateRequest(c *gin.Context) (*domain.CreateLinkRequest, bool) {
	var req domain.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return nil, false
	}
	if errs := validator.Validate(&req); len(errs) > 0 {
		response.ValidationErrors(c, errs)
		return nil, false
	}

	return &req, true
}

func (h *LinkHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		response.NotFound(c, "link not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, "not enough rights")
	case errors.Is(err, domain.ErrAliasTaken):
		response.BadRequest(c, "alias already taken")
	default:
		c.Error(err)
		response.InternalServerError(c, "internal error")
	}
}
