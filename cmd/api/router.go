package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accountDelivery "unibox-backend/internal/account/delivery"
	accountUsecasePkg "unibox-backend/internal/account/usecase"
	emailDelivery "unibox-backend/internal/email/delivery"
	emailUsecasePkg "unibox-backend/internal/email/usecase"
	knowledgeDelivery "unibox-backend/internal/knowledge/delivery"
	knowledgeUsecasePkg "unibox-backend/internal/knowledge/usecase"
	"unibox-backend/pkg/ai"
	"unibox-backend/pkg/config"
)

func SetupRoutes(r *gin.Engine, accountUc accountUsecasePkg.AccountUsecase, emailUc emailUsecasePkg.EmailUsecase, knowledgeUc knowledgeUsecasePkg.KnowledgeUsecase, cfg *config.Config) {
	accountHandler := accountDelivery.NewAccountHandler(accountUc)
	emailHandler := emailDelivery.NewEmailHandler(emailUc)
	knowledgeHandler := knowledgeDelivery.NewKnowledgeHandler(knowledgeUc)

	api := r.Group("/api")
	{
		// Health reports which integrations are configured, not whether
		// they are reachable.
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"integrations": gin.H{
					"ai_provider":   cfg.AIProvider,
					"ai":            aiConfigured(cfg),
					"elasticsearch": cfg.ElasticsearchURL != "",
					"slack":         cfg.SlackWebhookURL != "",
					"webhook":       cfg.OutboundWebhookURL != "",
				},
			})
		})

		accounts := api.Group("/accounts")
		{
			accounts.POST("", accountHandler.Register)
			accounts.GET("", accountHandler.GetAll)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.DELETE("/:id", accountHandler.Delete)
			accounts.POST("/:id/sync", accountHandler.TriggerSync)
		}

		emails := api.Group("/emails")
		{
			emails.GET("", emailHandler.Search)
			emails.GET("/:id", emailHandler.GetByID)
			emails.PATCH("/:id/read", emailHandler.MarkAsRead)
			emails.PATCH("/:id/category", emailHandler.UpdateCategory)
			emails.POST("/:id/suggest-reply", emailHandler.SuggestReply)
		}

		knowledge := api.Group("/knowledge")
		{
			knowledge.GET("", knowledgeHandler.GetAll)
			knowledge.POST("", knowledgeHandler.Create)
			knowledge.GET("/:id", knowledgeHandler.GetByID)
			knowledge.PUT("/:id", knowledgeHandler.Update)
			knowledge.DELETE("/:id", knowledgeHandler.Delete)
		}
	}
}

func aiConfigured(cfg *config.Config) bool {
	switch ai.ProviderType(cfg.AIProvider) {
	case ai.ProviderOpenAI:
		return cfg.OpenAIAPIKey != ""
	case ai.ProviderOllama:
		return cfg.OllamaBaseURL != ""
	default:
		return cfg.OpenAIAPIKey != "" || cfg.OllamaBaseURL != ""
	}
}
