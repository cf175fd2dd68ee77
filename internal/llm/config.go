// Package llm provides the model configuration and client abstraction used to
// reach the remote advice service.
package llm

import "maps"

// ModelTier picks a model by capability rather than by name.
type ModelTier string

const (
	TierLite     ModelTier = "lite"
	TierStandard ModelTier = "standard" // school advice
	TierAdvanced ModelTier = "advanced"
)

// Provider names a hosted model family.
type Provider string

// ProviderGemini is the only provider wired today.
const ProviderGemini Provider = "gemini"

const (
	// DefaultTemperature keeps recommendations stable between identical requests.
	DefaultTemperature float32 = 0.2
	// DefaultMaxOutputTokens leaves room for a few paragraphs of advice.
	DefaultMaxOutputTokens int32 = 2048
)

// AdvisorInstruction is sent as the system instruction on every call.
const AdvisorInstruction = "あなたは日本の高校受験を支援する進路アドバイザーです。" +
	"与えられた学校一覧の情報だけを根拠に、丁寧な日本語で回答してください。"

// Config selects models and generation settings for the advice service.
type Config struct {
	Provider          Provider
	Models            map[ModelTier]string
	Temperature       float32
	MaxOutputTokens   int32  // zero leaves the provider default
	SystemInstruction string // empty sends none
	StructuredAdvice  bool   // constrain GenerateJSON replies to the advice shape
}

// DefaultConfig returns the Gemini configuration used by the CLI and server.
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature:       DefaultTemperature,
		MaxOutputTokens:   DefaultMaxOutputTokens,
		SystemInstruction: AdvisorInstruction,
		StructuredAdvice:  true,
	}
}

// GetModel resolves a tier to a model name. Unknown tiers fall back to the
// standard model and then the lite one; "" means nothing is configured.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy with the model for tier replaced. The receiver is
// left untouched.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = make(map[ModelTier]string, len(c.Models)+1)
	maps.Copy(out.Models, c.Models)
	out.Models[tier] = model
	return &out
}
