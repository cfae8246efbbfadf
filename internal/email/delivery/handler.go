package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	emaildto "unibox-backend/internal/email/dto"
	"unibox-backend/internal/email/usecase"
)

type EmailHandler struct {
	emailUsecase usecase.EmailUsecase
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase) *EmailHandler {
	return &EmailHandler{
		emailUsecase: emailUsecase,
	}
}

func (h *EmailHandler) Search(c *gin.Context) {
	var req emaildto.SearchEmailsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emails, err := h.emailUsecase.Search(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"emails": emails, "total": len(emails)})
}

func (h *EmailHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	email, err := h.emailUsecase.GetByID(id)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, email)
}

func (h *EmailHandler) MarkAsRead(c *gin.Context) {
	id := c.Param("id")
	if err := h.emailUsecase.MarkAsRead(id); err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email marked as read"})
}

func (h *EmailHandler) UpdateCategory(c *gin.Context) {
	id := c.Param("id")

	var req emaildto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.emailUsecase.UpdateCategory(id, req.Category)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, email)
}

func (h *EmailHandler) SuggestReply(c *gin.Context) {
	id := c.Param("id")

	suggestion, err := h.emailUsecase.SuggestReply(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.SuggestReplyResponse{
		Reply:      suggestion.Reply,
		Confidence: suggestion.Confidence,
	})
}
