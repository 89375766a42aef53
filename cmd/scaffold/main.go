package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/admission"
	"github.com/amirhosseinghanipour/scaffold/internal/application/generation"
	"github.com/amirhosseinghanipour/scaffold/internal/application/message"
	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/application/project"
	"github.com/amirhosseinghanipour/scaffold/internal/application/usage"
	"github.com/amirhosseinghanipour/scaffold/internal/config"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/agent"
	infraauth "github.com/amirhosseinghanipour/scaffold/internal/infrastructure/auth"
	httprouter "github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/db"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/migrations"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/postgres"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/security"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/webhook"
)

// stores groups the persistence ports; memory.Store and the postgres
// repositories both satisfy them.
type stores struct {
	projects ports.ProjectRepository
	messages ports.MessageRepository
	results  ports.GenerationStore
	ledger   ports.CreditLedger
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = log.With().Str("role", string(cfg.Server.Role)).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	var st stores
	if cfg.Database.URL != "" {
		if cfg.Database.MigrateOnStart {
			if err := migrations.Up(cfg.Database.URL); err != nil {
				log.Fatal().Err(err).Msg("migrate database")
			}
		}
		pool, err = postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		defer pool.Close()
		queries := db.New(pool)
		messageRepo := postgres.NewMessageRepository(queries, pool)
		st = stores{
			projects: postgres.NewProjectRepository(queries, pool),
			messages: messageRepo,
			results:  messageRepo,
			ledger:   postgres.NewCreditLedger(queries, pool, cfg.CreditPolicy()),
		}
	} else {
		if cfg.Server.Role != config.RoleAll {
			log.Fatal().Msg("DATABASE_URL is required when api and worker run as separate processes")
		}
		log.Warn().Msg("DATABASE_URL not set; using in-memory storage, data is lost on exit")
		mem := memory.NewStore()
		st = stores{projects: mem, messages: mem, results: mem, ledger: memory.NewCreditLedger(cfg.CreditPolicy())}
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("ping redis")
		}
	}

	var emitter ports.WebhookEmitter = webhook.NewLogEmitter(log)
	if cfg.Webhook.URL != "" {
		emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, webhook.WithSigningSecret(cfg.Webhook.Secret))
	}

	var generator ports.Generator = agent.StaticGenerator{SandboxBaseURL: cfg.Agent.SandboxBaseURL}
	if cfg.Agent.URL != "" {
		generator = agent.NewHTTPGenerator(cfg.Agent.URL, agent.WithBearerToken(cfg.Agent.Token))
	} else {
		log.Warn().Msg("AGENT_URL not set; replies come from the built-in static generator")
	}
	runner := generation.NewRunCodeAgent(st.messages, st.results, generator, emitter, log)

	// Job bus: asynq on Redis when configured, otherwise the in-process queue.
	var enqueuer ports.TaskEnqueuer
	var asynqWorker *queue.Worker
	var localQueue *queue.LocalQueue
	if redisClient != nil {
		redisOpt, err := asynq.ParseRedisURI(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL for asynq")
		}
		asynqEnq := queue.NewAsynqEnqueuer(redisOpt, queue.AsynqOptions{
			Queue:     cfg.Queue.Name,
			MaxRetry:  cfg.Queue.MaxRetry,
			Timeout:   cfg.Queue.Timeout,
			Retention: cfg.Queue.Retention,
		}, log)
		defer asynqEnq.Close()
		enqueuer = asynqEnq
		if cfg.RunsWorker() {
			asynqWorker = queue.NewWorker(redisOpt, cfg.Queue.Concurrency, cfg.Queue.Name, runner.Handle, log)
			if err := asynqWorker.Start(); err != nil {
				log.Fatal().Err(err).Msg("start asynq worker")
			}
		}
	} else {
		localQueue, err = queue.NewLocalQueue(runner.Handle, queue.LocalOptions{
			Workers:   cfg.Queue.Concurrency,
			MaxRetry:  cfg.Queue.MaxRetry,
			Retention: cfg.Queue.Retention,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create local queue")
		}
		go localQueue.Run(ctx)
		enqueuer = localQueue
	}

	if cfg.RunsWorker() {
		go generation.RunRedispatchLoop(ctx, st.messages, enqueuer, cfg.Redispatch.Interval, cfg.Redispatch.After, log)
	}

	var srv *http.Server
	if cfg.RunsAPI() {
		srv = &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      buildRouter(cfg, st, enqueuer, emitter, pool, redisClient, log),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			log.Info().Str("port", cfg.Server.Port).Msg("server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("server")
			}
		}()
	} else {
		log.Info().Str("queue", cfg.Queue.Name).Msg("worker started")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	if localQueue != nil {
		if err := localQueue.Close(cfg.Server.ShutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("local queue did not drain")
		}
	}
	log.Info().Msg("stopped")
}

func buildRouter(cfg *config.Config, st stores, enqueuer ports.TaskEnqueuer, emitter ports.WebhookEmitter, pool *pgxpool.Pool, redisClient *redis.Client, log zerolog.Logger) http.Handler {
	tokens := loadTokenIssuer(cfg, log)

	ctrl := admission.NewController(st.projects, st.messages, st.ledger, enqueuer, cfg.Credits.GenerationCost, log)

	adminSecret, err := security.NewSharedSecret(cfg.Admin.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("parse ADMIN_SECRET")
	}
	var adminVerifier ports.SecretVerifier
	if adminSecret.Configured() {
		adminVerifier = adminSecret
	}
	requireAdmin := middleware.RequireAdminSecret(adminVerifier, lockout.NewMemoryStore(cfg.Admin.MaxFailures, cfg.Admin.LockoutCooldown))

	queueProbe, _ := enqueuer.(handlers.QueueProbe)

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("create rate limit store")
	}
	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP, limiterStore)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	userLimit, err := middleware.NewUserRateLimiter(cfg.RateLimit.RatePerUser, limiterStore)
	if err != nil {
		log.Fatal().Err(err).Msg("create user rate limiter")
	}

	return httprouter.NewRouter(httprouter.RouterConfig{
		MessagesHandler: handlers.NewMessagesHandler(ctrl, message.NewListMessages(st.projects, st.messages), emitter, log),
		ProjectsHandler: handlers.NewProjectsHandler(ctrl, project.NewListProjects(st.projects), project.NewGetProject(st.projects), emitter, log),
		UsageHandler:    handlers.NewUsageHandler(usage.NewGetStatus(st.ledger), log),
		AdminHandler:    handlers.NewAdminHandler(usage.NewGrantCredits(st.ledger), log),
		HealthHandler:   handlers.NewHealthHandler(pool, redisClient, queueProbe),
		RequireJWT:      middleware.NewAuthValidator(tokens, log).Handler,
		RequireAdmin:    requireAdmin,
		Log:             log,
		Secure:          middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment)),
		CORS:            middleware.CORS(cfg.CORS.AllowedOrigins),
		IPRateLimit:     ipLimit,
		UserRateLimit:   userLimit,
		Metrics:         true,
	})
}

// loadTokenIssuer prefers the identity provider's public key. Without any key
// configured it generates a throwaway one and writes it where scaffoldctl
// token can sign with it.
func loadTokenIssuer(cfg *config.Config, log zerolog.Logger) *infraauth.TokenIssuer {
	pubPEM, err := cfg.LoadJWTPublicKey()
	if err != nil {
		log.Fatal().Err(err).Msg("load JWT public key")
	}
	if pubPEM != nil {
		pub, err := infraauth.LoadRSAPublicKeyFromPEM(pubPEM)
		if err != nil {
			log.Fatal().Err(err).Msg("parse JWT public key")
		}
		return infraauth.NewTokenVerifier(pub, cfg.JWT.Issuer, cfg.JWT.Audience)
	}

	privPEM, err := cfg.LoadJWTPrivateKey()
	if err != nil {
		log.Fatal().Err(err).Msg("load JWT private key")
	}
	var key *rsa.PrivateKey
	if privPEM != nil {
		key, err = infraauth.LoadRSAPrivateKeyFromPEM(privPEM)
		if err != nil {
			log.Fatal().Err(err).Msg("parse JWT private key")
		}
	} else {
		var pemBytes []byte
		key, pemBytes, err = infraauth.GenerateDevKey()
		if err != nil {
			log.Fatal().Err(err).Msg("generate dev JWT key")
		}
		path := filepath.Join(os.TempDir(), "scaffold-dev-jwt.pem")
		if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
			log.Fatal().Err(err).Msg("write dev JWT key")
		}
		log.Warn().Str("key_path", path).Msg("no JWT key configured; generated a development signing key")
	}
	return infraauth.NewTokenIssuer(key, cfg.JWT.Issuer, cfg.JWT.Audience)
}
