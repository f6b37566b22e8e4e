package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/citypal/citypal/internal/agent"
	"github.com/citypal/citypal/internal/chat"
	"github.com/citypal/citypal/internal/config"
	"github.com/citypal/citypal/internal/conversation"
	"github.com/citypal/citypal/internal/providers"
	"github.com/citypal/citypal/internal/tools"
)

type runtimeEnv struct {
	Service    *chat.Service
	Classifier *agent.Classifier

	store   conversation.Store
	watcher *config.Watcher
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			log.Printf("failed to stop config watcher: %v", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}
}

func prepareRuntimeEnv(ctx context.Context, dbFlag string, verbose bool) (*runtimeEnv, error) {
	cfgManager, userConfig := loadUserConfig()

	// The setup choices in config.json take precedence over potentially
	// stale environment variables from the shell or .env files.
	applyConfigToEnv(userConfig)

	gateway, modelName, err := providers.NewGatewayFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create model gateway: %w", err)
	}
	log.Printf("Model gateway ready (model: %s)", modelName)

	weatherKey := os.Getenv("OPENWEATHER_API_KEY")
	if weatherKey == "" {
		weatherKey = userConfig.OpenWeatherAPIKey
	}
	if weatherKey == "" {
		log.Println("No OpenWeatherMap key configured; the weather tool serves canned data")
	}

	registry, err := tools.NewToolRegistry(tools.Settings{
		Set:               userConfig.ToolSet(),
		OpenWeatherAPIKey: weatherKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	log.Printf("Tools enabled: %v", registry.Names())

	classifier := agent.NewClassifier(userConfig.Classifier)

	watcher := startConfigWatcher(cfgManager, classifier)

	var hooks []agent.Hook
	if verbose {
		hooks = append(hooks, agent.LoggerHook{L: log.Default()})
	}

	agentCfg := agent.DefaultConfig()
	if userConfig.MaxRetries > 0 {
		agentCfg.MaxRetries = userConfig.MaxRetries
	}
	ag := agent.New(gateway, registry, classifier, agentCfg, hooks...)

	store, err := openStore(ctx, dbFlag, userConfig)
	if err != nil {
		return nil, err
	}

	return &runtimeEnv{
		Service:    chat.NewService(store, ag),
		Classifier: classifier,
		store:      store,
		watcher:    watcher,
	}, nil
}

func loadUserConfig() (*config.Manager, *config.Config) {
	cfgManager, err := config.NewManager()
	if err != nil {
		log.Printf("failed to initialize config manager: %v", err)
		return nil, &config.Config{}
	}

	userConfig, err := cfgManager.Load()
	if err != nil {
		log.Printf("failed to load user config: %v", err)
		return cfgManager, &config.Config{}
	}
	if cfgManager.Exists() {
		log.Printf("User config loaded from: %s", cfgManager.GetConfigPath())
	}
	return cfgManager, userConfig
}

func applyConfigToEnv(userConfig *config.Config) {
	if userConfig.LLMProvider != "" {
		os.Setenv("LLM_PROVIDER", userConfig.LLMProvider)
	}
	if userConfig.APIKey == "" {
		return
	}
	switch userConfig.LLMProvider {
	case "openai":
		os.Setenv("OPENAI_API_KEY", userConfig.APIKey)
		if userConfig.Model != "" {
			os.Setenv("OPENAI_MODEL", userConfig.Model)
		}
		if userConfig.BaseURL != "" {
			os.Setenv("OPENAI_BASE_URL", userConfig.BaseURL)
		}
	case "anthropic":
		os.Setenv("ANTHROPIC_API_KEY", userConfig.APIKey)
		if userConfig.Model != "" {
			os.Setenv("ANTHROPIC_MODEL", userConfig.Model)
		}
	case "kimi":
		os.Setenv("KIMI_API_KEY", userConfig.APIKey)
		if userConfig.Model != "" {
			os.Setenv("KIMI_MODEL", userConfig.Model)
		}
	}
}

// startConfigWatcher hot-reloads classifier indicator overrides from
// config.json. A nil manager or watcher failure only disables reloading.
func startConfigWatcher(cfgManager *config.Manager, classifier *agent.Classifier) *config.Watcher {
	if cfgManager == nil || !cfgManager.Exists() {
		return nil
	}

	watcher, err := config.NewWatcher(cfgManager, func(c *config.Config) {
		classifier.SetConfig(c.Classifier)
		log.Println("classifier indicators reloaded from config")
	})
	if err != nil {
		log.Printf("config watcher disabled: %v", err)
		return nil
	}
	if err := watcher.Start(); err != nil {
		log.Printf("config watcher disabled: %v", err)
		return nil
	}
	return watcher
}

func openStore(ctx context.Context, dbFlag string, userConfig *config.Config) (conversation.Store, error) {
	dbPath := dbFlag
	if dbPath == "" {
		dbPath = userConfig.DatabasePath
	}
	if dbPath == "memory" {
		return conversation.NewMemoryStore(), nil
	}
	if dbPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user config dir: %w", err)
		}
		dbPath = filepath.Join(configDir, "citypal", "conversations.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	store, err := conversation.NewSQLiteStore(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation store: %w", err)
	}
	return store, nil
}
