package domain

// AIProvider identifies an external AI service vendor
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama"
	AIProviderGemini AIProvider = "gemini"
)

// EmbeddingSettings configures the dense embedding provider
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"api_key,omitempty"`
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured reports whether the settings are complete enough to
// construct a service
func (s *EmbeddingSettings) IsConfigured() bool {
	switch s.Provider {
	case AIProviderOpenAI:
		return s.APIKey != ""
	case AIProviderOllama:
		return true // local daemon, defaults apply
	}
	return false
}

// LLMSettings configures the generation model
type LLMSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"api_key,omitempty"`
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured reports whether the settings are complete enough to
// construct a service
func (s *LLMSettings) IsConfigured() bool {
	switch s.Provider {
	case AIProviderGemini:
		return s.APIKey != ""
	case AIProviderOllama:
		return true
	}
	return false
}
