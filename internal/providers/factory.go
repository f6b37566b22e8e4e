package providers

import (
	"fmt"
	"os"

	"github.com/citypal/citypal/internal/agent"
)

// endpoint describes an OpenAI-compatible provider reachable through the
// OpenAI gateway with a different base URL.
type endpoint struct {
	keyEnv       string
	modelEnv     string
	baseURLEnv   string
	defaultModel string
	baseURL      string
	keyOptional  bool // local servers accept any key
}

var openAICompatible = map[string]endpoint{
	"openai": {
		keyEnv:       "OPENAI_API_KEY",
		modelEnv:     "OPENAI_MODEL",
		baseURLEnv:   "OPENAI_BASE_URL",
		defaultModel: "gpt-4o-mini",
	},
	"kimi": {
		keyEnv:       "KIMI_API_KEY",
		modelEnv:     "KIMI_MODEL",
		baseURLEnv:   "KIMI_BASE_URL",
		defaultModel: "kimi-k2-250711",
		baseURL:      "https://ark.ap-southeast.bytepluses.com/api/v3",
	},
	"gemini": {
		keyEnv:       "GEMINI_API_KEY",
		modelEnv:     "GEMINI_MODEL",
		defaultModel: "gemini-1.5-flash",
		baseURL:      "https://generativelanguage.googleapis.com/v1beta/openai",
	},
	"deepseek": {
		keyEnv:       "DEEPSEEK_API_KEY",
		modelEnv:     "DEEPSEEK_MODEL",
		defaultModel: "deepseek-chat",
		baseURL:      "https://api.deepseek.com/v1",
	},
	"groq": {
		keyEnv:       "GROQ_API_KEY",
		modelEnv:     "GROQ_MODEL",
		defaultModel: "llama-3.1-70b-versatile",
		baseURL:      "https://api.groq.com/openai/v1",
	},
	"glm": {
		keyEnv:       "GLM_API_KEY",
		modelEnv:     "GLM_MODEL",
		defaultModel: "glm-4-plus",
		baseURL:      "https://open.bigmodel.cn/api/paas/v4",
	},
	"ollama": {
		keyEnv:       "OLLAMA_API_KEY",
		modelEnv:     "OLLAMA_MODEL",
		baseURLEnv:   "OLLAMA_BASE_URL",
		defaultModel: "llama3.1",
		baseURL:      "http://localhost:11434/v1",
		keyOptional:  true,
	},
	"lmstudio": {
		keyEnv:       "LMSTUDIO_API_KEY",
		modelEnv:     "LMSTUDIO_MODEL",
		baseURLEnv:   "LMSTUDIO_BASE_URL",
		defaultModel: "local-model",
		baseURL:      "http://localhost:1234/v1",
		keyOptional:  true,
	},
}

// NewGateway creates a gateway for an explicit provider/key/model triple.
// Unknown providers with a baseURL fall back to the OpenAI wire format.
func NewGateway(provider, apiKey, modelName, baseURL string) (agent.ModelGateway, error) {
	switch provider {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		if modelName == "" {
			modelName = "claude-3-5-sonnet-latest"
		}
		return NewAnthropicGateway(apiKey, modelName), nil
	default:
		ep, ok := openAICompatible[provider]
		if !ok && baseURL == "" {
			return nil, fmt.Errorf("unknown provider %q and no base URL given", provider)
		}
		if modelName == "" {
			modelName = ep.defaultModel
		}
		if baseURL == "" {
			baseURL = ep.baseURL
		}
		if apiKey == "" && ep.keyOptional {
			apiKey = provider
		}
		if apiKey == "" {
			return nil, fmt.Errorf("provider %q requires an API key", provider)
		}
		return NewOpenAIGateway(apiKey, modelName, baseURL), nil
	}
}

// NewGatewayFromEnv selects a provider from LLM_PROVIDER (default "openai")
// and builds it from that provider's environment variables. Returns the
// gateway and the resolved model name.
func NewGatewayFromEnv() (agent.ModelGateway, string, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	if provider == "anthropic" {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		modelName := os.Getenv("ANTHROPIC_MODEL")
		if modelName == "" {
			modelName = "claude-3-5-sonnet-latest"
		}
		return NewAnthropicGateway(apiKey, modelName), modelName, nil
	}

	ep, ok := openAICompatible[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: openai, anthropic, kimi, gemini, deepseek, groq, glm, ollama, lmstudio)", provider)
	}

	apiKey := os.Getenv(ep.keyEnv)
	if apiKey == "" {
		if !ep.keyOptional {
			return nil, "", fmt.Errorf("%s not set", ep.keyEnv)
		}
		apiKey = provider
	}

	modelName := os.Getenv(ep.modelEnv)
	if modelName == "" {
		modelName = ep.defaultModel
	}

	baseURL := ep.baseURL
	if ep.baseURLEnv != "" {
		if v := os.Getenv(ep.baseURLEnv); v != "" {
			baseURL = v
		}
	}

	return NewOpenAIGateway(apiKey, modelName, baseURL), modelName, nil
}
