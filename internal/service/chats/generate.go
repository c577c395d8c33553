package chats

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"ollamahub/internal/ollama"
)

// Generate dispatches a prompt to the default server and returns the
// generated text, consulting the response cache first. Cache failures read as
// misses; dispatch failures propagate.
func (s *Service) Generate(ctx context.Context, model, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is required")
	}
	if strings.TrimSpace(model) == "" {
		model = s.defaultModel
	}

	key := responseCacheKey(model, prompt)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		return cached, nil
	}

	response, err := s.manager.GenerateDefault(ctx, model, prompt)
	if err != nil {
		return "", err
	}
	if response != ollama.NoResponseFallback {
		// cache write failures are not the caller's problem
		_ = s.cache.Set(ctx, key, response, s.cacheTTL)
	}
	return response, nil
}

func responseCacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return "gen:" + hex.EncodeToString(sum[:])
}
