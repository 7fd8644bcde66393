package provider

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/medcrew/config"
	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
	"github.com/mohammad-safakhou/medcrew/provider/models"
	openai_provider "github.com/mohammad-safakhou/medcrew/provider/openai"
)

// ChatClient is the contract every LLM backend satisfies
type ChatClient interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// NewChatClient creates the configured LLM client
func NewChatClient(cfg config.LLMConfig, debug bool, logger *log.Logger) (ChatClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	opts := openai_provider.Options{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Debug:       debug,
		Logger:      logger,
		HTTP:        httpclient.New(timeout),
	}
	switch cfg.Provider {
	case config.ProviderAzure:
		opts.Azure = true
		opts.BaseURL = cfg.Endpoint
		opts.APIVersion = cfg.APIVersion
	case config.ProviderOpenAI:
		opts.BaseURL = cfg.Endpoint
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	return openai_provider.NewClient(opts), nil
}
