package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/apikey"
	"github.com/eleven-am/agent-widget/internal/chat"
	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/ratelimit"
	"github.com/eleven-am/agent-widget/internal/responder"
	"github.com/eleven-am/agent-widget/internal/retention"
	"github.com/eleven-am/agent-widget/internal/session"
	"github.com/eleven-am/agent-widget/internal/speech"
	"github.com/eleven-am/agent-widget/internal/verification"
	"go.uber.org/fx"
)

// recognizerFilename tells the transcription endpoint how to decode the
// buffered widget audio.
const recognizerFilename = "speech.webm"

func ProvideResponder(cfg *Config) (responder.Responder, error) {
	return responder.New(responder.Config{
		Provider:         cfg.LLMProvider,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		OpenAIModel:      cfg.OpenAIModel,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	})
}

func ProvideSpeech(cfg *Config) *speech.OpenAI {
	if !cfg.SpeechEnabled() {
		return nil
	}
	return speech.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.TTSModel, cfg.STTModel)
}

func ProvideRecorder(store *agent.Store, logger *slog.Logger) *interaction.Recorder {
	return interaction.NewRecorder(store, logger)
}

func ProvideTracker(store *session.Store, logger *slog.Logger) *session.Tracker {
	return session.NewTracker(store, logger)
}

func ProvideChatManager(
	lc fx.Lifecycle,
	cfg *Config,
	agents *agent.Store,
	keys *apikey.Store,
	resp responder.Responder,
	recorder *interaction.Recorder,
	tracker *session.Tracker,
	logger *slog.Logger,
) *chat.Manager {
	manager := chat.NewManager(chat.ManagerConfig{
		Agents:      agents,
		Responder:   resp,
		Recorder:    recorder,
		Validator:   keys,
		Observer:    tracker,
		Sessions:    tracker,
		IdleTimeout: cfg.WidgetIdleTimeout,
	}, logger)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			manager.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			manager.Close(ctx)
			return nil
		},
	})
	return manager
}

func ProvideWSConfig(sp *speech.OpenAI) chat.WSConfig {
	if sp == nil {
		return chat.WSConfig{}
	}
	return chat.WSConfig{
		NewSynthesizer: func(sink speech.AudioSink) speech.Synthesizer {
			return sp.Synthesizer(sink)
		},
		NewRecognizer: func() chat.AudioRecognizer {
			return sp.Recognizer(recognizerFilename)
		},
	}
}

// ProvideVerificationService returns nil when no Firebase key is configured,
// in which case the verify-email route is not mounted.
func ProvideVerificationService(cfg *Config, logger *slog.Logger) (*verification.Service, error) {
	if !cfg.VerificationEnabled() {
		logger.Warn("FIREBASE_API_KEY not set, email verification disabled")
		return nil, nil
	}

	sender, err := verification.NewIdentityToolkitSender(context.Background(), cfg.FirebaseAPIKey, cfg.VerifyEmailURL)
	if err != nil {
		return nil, err
	}
	cooldown := ratelimit.NewCooldown(ratelimit.NewState(), cfg.VerificationCooldown)
	return verification.NewService(sender, cooldown, logger), nil
}

func ProvideRetentionJob(lc fx.Lifecycle, cfg *Config, store *agent.Store, logger *slog.Logger) *retention.Job {
	job := retention.NewJob(store, retention.Config{
		Schedule:        cfg.RetentionSchedule,
		MaxInteractions: cfg.RetentionMaxInteractions,
	}, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return job.Start()
		},
		OnStop: func(ctx context.Context) error {
			job.Stop()
			return nil
		},
	})
	return job
}

var ServicesModule = fx.Options(
	fx.Provide(
		ProvideResponder,
		ProvideSpeech,
		ProvideRecorder,
		ProvideTracker,
		ProvideChatManager,
		ProvideWSConfig,
		ProvideVerificationService,
		ProvideRetentionJob,
	),
	fx.Invoke(func(*retention.Job) {}),
)
