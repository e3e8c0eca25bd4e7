package messaging

import (
	"context"
	"embed"

	"github.com/redis/go-redis/v9"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/aggregates/conversation"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/channel/whatsapp"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/memory"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/persistence"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/storage/supabase"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/infrastructure/transcription"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/presentation/controllers"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/services"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/application"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/composables"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/configuration"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/tasks"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	log := app.Logger()

	app.Migrations().RegisterSchema(&migrationFiles, "infrastructure/persistence/schema")

	conversationRepo := persistence.NewConversationRepository()
	messageRepo := persistence.NewMessageRepository()
	attachmentRepo := persistence.NewAttachmentRepository()
	settingRepo := persistence.NewPauseSettingRepository()

	sender := whatsapp.New(whatsapp.Config{
		BaseURL:  conf.WhatsApp.BaseURL,
		APIKey:   conf.WhatsApp.APIKey,
		Instance: conf.WhatsApp.Instance,
		Timeout:  conf.WhatsApp.SendTimeout,
	})
	storage := supabase.New(supabase.Config{
		ProjectURL:   conf.Storage.SupabaseURL,
		ServiceKey:   conf.Storage.SupabaseKey,
		Bucket:       conf.Storage.Bucket,
		SignedURLTTL: conf.Storage.SignedURLTTL,
	})

	redisOpts, err := redis.ParseURL(conf.RedisURL)
	if err != nil {
		redisOpts = &redis.Options{Addr: conf.RedisURL}
	}
	memoryStore := memory.NewRedisStore(redis.NewClient(redisOpts))

	var transcriber conversation.Transcriber
	if conf.Transcription.Enabled && conf.Transcription.OpenAIKey != "" {
		transcriber = transcription.NewWhisperTranscriber(transcription.Config{
			APIKey: conf.Transcription.OpenAIKey,
			Model:  conf.Transcription.Model,
		})
	}

	// Background tasks run outside any request, so they carry the pool in
	// their own base context.
	baseCtx := composables.WithPool(context.Background(), app.Pool())
	entry := log.WithField("module", "messaging")
	dispatchPool := tasks.NewPool(
		"dispatch",
		conf.Delivery.Workers,
		conf.Delivery.QueueSize,
		entry,
		tasks.WithBaseContext(baseCtx),
	)
	enrichmentPool := tasks.NewPool(
		"enrichment",
		2,
		conf.Delivery.QueueSize,
		entry,
		tasks.WithBaseContext(baseCtx),
	)

	conversationService := services.NewConversationService(
		conversationRepo,
		messageRepo,
		settingRepo,
		app.EventPublisher(),
		services.PauseDefaults{
			Duration: conf.Pause.DefaultDuration,
			Unit:     pausesetting.Unit(conf.Pause.DefaultUnit),
		},
	)
	deliveryService := services.NewDeliveryService(
		conversationRepo,
		messageRepo,
		attachmentRepo,
		storage,
		sender,
		app.EventPublisher(),
		dispatchPool,
		entry,
		services.DeliveryConfig{
			MaxUploadSize:   conf.MaxUploadSize,
			DispatchTimeout: conf.Delivery.DispatchTimeout,
		},
	)
	enrichmentService := services.NewEnrichmentService(
		messageRepo,
		attachmentRepo,
		memoryStore,
		transcriber,
		enrichmentPool,
		entry,
	)
	enrichmentService.RegisterListeners(app.EventPublisher())

	reaper := services.NewPauseReaper(
		conversationRepo,
		app.EventPublisher(),
		entry,
		services.ReaperOptions{
			Interval:  conf.Pause.ReaperInterval,
			BatchSize: conf.Pause.ReaperBatchSize,
		},
	)

	app.RegisterServices(
		conversationService,
		deliveryService,
		enrichmentService,
		reaper,
	)
	app.RegisterControllers(
		controllers.NewMessagingAPIController(controllers.MessagingAPIControllerConfig{
			BasePath:      "/api/messaging",
			Conversations: conversationService,
			Delivery:      deliveryService,
			MaxUploadSize: conf.MaxUploadSize,
		}),
	)
	return nil
}

func (m *Module) Name() string {
	return "messaging"
}
