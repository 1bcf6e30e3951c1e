package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/didakt/internal/core/domain"
	"github.com/custodia-labs/didakt/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks freshly entered LLM settings against the live
// provider.
type ConfigValidator struct {
	// Timeout bounds each check. Zero means DefaultPingTimeout.
	Timeout time.Duration
}

// NewConfigValidator returns a validator using DefaultPingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{Timeout: DefaultPingTimeout}
}

// ValidateLLM reports nil for nil or unconfigured settings, since there is
// nothing to reach.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil {
		return nil
	}
	if settings.MissingCredential() {
		return fmt.Errorf("%s: %w", settings.Provider.Description(), domain.ErrMissingCredential)
	}

	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc, err := Connect(ctx, *settings)
	if err != nil {
		return err
	}
	if svc != nil {
		_ = svc.Close()
	}
	return nil
}
