package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	api "unibox-backend/cmd/api"
	accountdomain "unibox-backend/internal/account/domain"
	accountRepo "unibox-backend/internal/account/repository"
	accountUsecase "unibox-backend/internal/account/usecase"
	emaildomain "unibox-backend/internal/email/domain"
	emailRepo "unibox-backend/internal/email/repository"
	emailUsecase "unibox-backend/internal/email/usecase"
	knowledgedomain "unibox-backend/internal/knowledge/domain"
	knowledgeRepo "unibox-backend/internal/knowledge/repository"
	knowledgeUsecase "unibox-backend/internal/knowledge/usecase"
	"unibox-backend/internal/notification"
	syncengine "unibox-backend/internal/sync"
	"unibox-backend/pkg/ai"
	"unibox-backend/pkg/config"
	"unibox-backend/pkg/database"
	"unibox-backend/pkg/logging"
	"unibox-backend/pkg/search"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Setup()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&accountdomain.EmailAccount{}, &emaildomain.Email{}, &knowledgedomain.KnowledgeEntry{}); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// Initialize repositories (dependency injection)
	accountRepository := accountRepo.NewAccountRepository(db)
	emailRepository := emailRepo.NewEmailRepository(db)
	knowledgeRepository := knowledgeRepo.NewKnowledgeRepository(db)

	// Initialize search client. Optional: without it the engine still
	// syncs, only search goes dark.
	var searchClient *search.Client
	if cfg.ElasticsearchURL != "" {
		searchClient, err = search.NewClient(cfg.ElasticsearchURL)
		if err != nil {
			log.WithError(err).Warn("failed to initialize elasticsearch client, search disabled")
			searchClient = nil
		} else {
			log.Info("elasticsearch client initialized")
		}
	} else {
		log.Warn("ELASTICSEARCH_URL not set, search disabled")
	}

	// Initialize AI service
	aiService, err := ai.NewService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.WithError(err).Warn("failed to initialize AI service, classification and replies disabled")
	} else {
		log.WithField("provider", cfg.AIProvider).Info("AI service initialized")
	}

	// Notification fan-out for interested leads
	notifService := notification.NewService(cfg.SlackWebhookURL, cfg.OutboundWebhookURL)

	// Background index workers
	var indexer *syncengine.Indexer
	if searchClient != nil {
		indexer = syncengine.NewIndexer(searchClient, cfg.IndexWorkerCount)
		indexer.Start()
	}

	// Sync engine: pipeline plus one IMAP session per active account
	var classifier syncengine.Classifier
	if aiService != nil {
		classifier = aiService
	}
	pipeline := syncengine.NewPipeline(emailRepository, accountRepository, classifier, indexer, notifService, cfg.SyncTimeGranularity)
	manager := syncengine.NewManager(syncengine.TLSClientFactory{}, pipeline)

	// Initialize use cases (dependency injection)
	accountUsecaseInstance := accountUsecase.NewAccountUsecase(accountRepository, emailRepository, manager)
	emailUsecaseInstance := emailUsecase.NewEmailUsecase(emailRepository)
	knowledgeUsecaseInstance := knowledgeUsecase.NewKnowledgeUsecase(knowledgeRepository, aiService)

	if searchClient != nil {
		accountUsecaseInstance.SetSearchPurger(searchClient)
		emailUsecaseInstance.SetSearcher(searchClient)
	}
	if indexer != nil {
		emailUsecaseInstance.SetReindexer(indexer)
	}
	emailUsecaseInstance.SetReplySuggester(knowledgeUsecaseInstance)

	// Resume sync sessions for accounts registered before this boot
	accountUsecaseInstance.ResumeSessions()

	// Initialize HTTP handler
	handler := api.NewHandler(accountUsecaseInstance, emailUsecaseInstance, knowledgeUsecaseInstance, cfg)

	log.WithField("port", cfg.Port).Info("server starting")
	errCh := make(chan error, 1)
	go func() {
		errCh <- handler.Start(":" + cfg.Port)
	}()

	// Shut down the sync sessions and drain the index queue before exiting,
	// whether the server failed or a signal asked us to stop.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.WithError(err).Error("server stopped")
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	manager.StopAll()
	if indexer != nil {
		indexer.Stop()
	}
}
