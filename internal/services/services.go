package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/config"
	"github.com/terranocoder/terrano/internal/connections"
	"github.com/terranocoder/terrano/internal/infrastructure/deepseek"
	"github.com/terranocoder/terrano/internal/infrastructure/functions"
	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
	"github.com/terranocoder/terrano/internal/infrastructure/redis"
	"github.com/terranocoder/terrano/internal/metrics"
	"github.com/terranocoder/terrano/internal/services/assistant"
	"github.com/terranocoder/terrano/internal/services/credentials"
	"github.com/terranocoder/terrano/internal/services/files"
	"github.com/terranocoder/terrano/internal/services/git"
	"github.com/terranocoder/terrano/internal/services/plugins"
	"github.com/terranocoder/terrano/internal/services/projects"
	"github.com/terranocoder/terrano/internal/services/runner"
	"github.com/terranocoder/terrano/internal/services/search"
	"github.com/terranocoder/terrano/pkg/ratelimit"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	postgresService  *postgres.Service
	redisService     *redis.Service
	deepseekService  *deepseek.Service
	functionsService *functions.Service

	assistantService *assistant.Service
	projectService   *projects.Service
	fileService      *files.Service
	searchService    *search.Service
	gitService       *git.Service
	gitPoller        *git.Poller
	runnerService    *runner.Service
	pluginManager    *plugins.Manager

	connections *connections.Manager
}

// InitializeServices wires every service. Postgres, Redis and the remote
// functions are optional; without them the services fall back to memory or
// report that the feature is not configured.
func InitializeServices(ctx context.Context) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	// Initialize optional infrastructure services
	postgresService := postgres.NewService(ctx)
	redisService := redis.NewService()
	functionsService := functions.NewService(config.GetFunctionsConfig())
	log.Info().
		Bool("postgres", postgresService != nil).
		Bool("redis", redisService != nil).
		Bool("functions", functionsService != nil).
		Msg("Initializing infrastructure services")

	// The throttle is shared by every outbound completion
	throttleCfg := config.GetThrottleConfig()
	throttle := ratelimit.NewBucket(
		throttleCfg.Capacity,
		throttleCfg.RefillRate,
		ratelimit.WithWaitObserver(metrics.ObserveThrottleWait),
	)

	deepseekCfg := config.GetDeepSeekConfig()
	deepseekService := deepseek.NewService(
		deepseekCfg,
		throttle,
		credentials.NewSource(postgresService),
		deepseek.WithHTTPClient(deepseek.NewHTTPClient(deepseekCfg.ResponseTimeout)),
	)

	assistantService := assistant.NewService(deepseekService, assistant.NewStore(postgresService, redisService))
	log.Info().Msg("Initializing assistant service")

	fileService := files.NewService(postgresService)
	projectService := projects.NewService(postgresService)
	if postgresService == nil {
		// Postgres drops a project's files through ON DELETE CASCADE
		projectService.OnDelete(fileService.DeleteByProject)
	}
	invoker := functions.NewInvoker(functionsService)
	gitService := git.NewService(invoker)

	log.Info().Msg("All services initialized successfully")

	return &Services{
		postgresService:  postgresService,
		redisService:     redisService,
		deepseekService:  deepseekService,
		functionsService: functionsService,
		assistantService: assistantService,
		projectService:   projectService,
		fileService:      fileService,
		searchService:    search.NewService(fileService.Repository()),
		gitService:       gitService,
		gitPoller:        git.NewPoller(gitService, git.NewCache(redisService), config.GetGitPollInterval()),
		runnerService:    runner.NewService(invoker),
		pluginManager:    plugins.NewManager(postgresService, plugins.DefaultRegistry()),
		connections:      connections.NewManager(connections.DefaultTimeouts),
	}, nil
}

// Close releases the infrastructure connections
func (s *Services) Close() {
	s.connections.CloseAll()

	if s.redisService != nil {
		if err := s.redisService.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}
	if s.postgresService != nil {
		s.postgresService.Close()
	}
}

// Ping checks the optional backing stores that are configured
func (s *Services) Ping(ctx context.Context) map[string]string {
	checks := map[string]string{}

	check := func(name string, configured bool, ping func(context.Context) error) {
		switch {
		case !configured:
			checks[name] = "disabled"
		case ping(ctx) != nil:
			checks[name] = "down"
		default:
			checks[name] = "ok"
		}
	}

	check("postgres", s.postgresService != nil, func(ctx context.Context) error { return s.postgresService.Ping(ctx) })
	check("redis", s.redisService != nil, func(ctx context.Context) error { return s.redisService.Ping(ctx) })
	checks["functions"] = "disabled"
	if s.functionsService != nil {
		checks["functions"] = "ok"
	}
	return checks
}

// GetAssistantService returns the assistant service
func (s *Services) GetAssistantService() *assistant.Service {
	return s.assistantService
}

// GetProjectService returns the project service
func (s *Services) GetProjectService() *projects.Service {
	return s.projectService
}

// GetFileService returns the file service
func (s *Services) GetFileService() *files.Service {
	return s.fileService
}

// GetSearchService returns the search service
func (s *Services) GetSearchService() *search.Service {
	return s.searchService
}

// GetGitService returns the git service
func (s *Services) GetGitService() *git.Service {
	return s.gitService
}

// GetGitPoller returns the git status poller
func (s *Services) GetGitPoller() *git.Poller {
	return s.gitPoller
}

// GetRunnerService returns the runner service
func (s *Services) GetRunnerService() *runner.Service {
	return s.runnerService
}

// GetPluginManager returns the plugin manager
func (s *Services) GetPluginManager() *plugins.Manager {
	return s.pluginManager
}

// GetConnectionManager returns the websocket connection manager
func (s *Services) GetConnectionManager() *connections.Manager {
	return s.connections
}
