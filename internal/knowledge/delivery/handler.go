package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	knowledgedto "unibox-backend/internal/knowledge/dto"
	"unibox-backend/internal/knowledge/usecase"
)

type KnowledgeHandler struct {
	knowledgeUsecase usecase.KnowledgeUsecase
}

func NewKnowledgeHandler(knowledgeUsecase usecase.KnowledgeUsecase) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledgeUsecase: knowledgeUsecase,
	}
}

func (h *KnowledgeHandler) GetAll(c *gin.Context) {
	entries, err := h.knowledgeUsecase.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *KnowledgeHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	entry, err := h.knowledgeUsecase.GetByID(id)
	if err != nil {
		if errors.Is(err, usecase.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *KnowledgeHandler) Create(c *gin.Context) {
	var req knowledgedto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.knowledgeUsecase.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *KnowledgeHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req knowledgedto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.knowledgeUsecase.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, usecase.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.knowledgeUsecase.Delete(id); err != nil {
		if errors.Is(err, usecase.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "knowledge entry deleted"})
}
