package llm

import (
	"context"
	"log/slog"
)

// FailoverClient wraps a primary model client with a fallback provider.
// If the primary fails, the request is retried once against the fallback.
type FailoverClient struct {
	primary  Client
	fallback Client
	logger   *slog.Logger
}

// NewFailoverClient creates a failover-enabled client. A nil fallback means
// only the primary provider is used.
func NewFailoverClient(primary, fallback Client, logger *slog.Logger) *FailoverClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailoverClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Complete sends a completion request to the primary provider, falling back
// to the secondary on error.
func (c *FailoverClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary model provider failed",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return Response{}, err
	}

	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback model provider also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Response{}, fallbackErr
	}

	c.logger.Info("fallback model provider succeeded after primary failure")
	return fallbackResp, nil
}
