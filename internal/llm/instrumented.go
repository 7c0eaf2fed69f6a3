package llm

import "context"

// FailureObserver counts failed model calls, labelled by pipeline stage.
type FailureObserver interface {
	ObserveLLMFailure(stage string)
}

type instrumentedClient struct {
	inner    Client
	stage    string
	observer FailureObserver
}

// NewInstrumentedClient wraps inner so every failed completion is reported to
// the observer under the given stage label. A nil inner stays nil, preserving
// the no-provider degradation path.
func NewInstrumentedClient(inner Client, stage string, observer FailureObserver) Client {
	if inner == nil {
		return nil
	}
	return &instrumentedClient{inner: inner, stage: stage, observer: observer}
}

func (c *instrumentedClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.inner.Complete(ctx, req)
	if err != nil && c.observer != nil {
		c.observer.ObserveLLMFailure(c.stage)
	}
	return resp, err
}
