package api

import (
	"github.com/gin-gonic/gin"

	accountUsecasePkg "unibox-backend/internal/account/usecase"
	emailUsecasePkg "unibox-backend/internal/email/usecase"
	knowledgeUsecasePkg "unibox-backend/internal/knowledge/usecase"
	"unibox-backend/pkg/config"
)

type Handler struct {
	accountUsecase   accountUsecasePkg.AccountUsecase
	emailUsecase     emailUsecasePkg.EmailUsecase
	knowledgeUsecase knowledgeUsecasePkg.KnowledgeUsecase
	config           *config.Config
}

func NewHandler(accountUc accountUsecasePkg.AccountUsecase, emailUc emailUsecasePkg.EmailUsecase, knowledgeUc knowledgeUsecasePkg.KnowledgeUsecase, cfg *config.Config) *Handler {
	return &Handler{
		accountUsecase:   accountUc,
		emailUsecase:     emailUc,
		knowledgeUsecase: knowledgeUc,
		config:           cfg,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.accountUsecase, h.emailUsecase, h.knowledgeUsecase, h.config)

	return r.Run(addr)
}
