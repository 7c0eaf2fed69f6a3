package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	stages []string
}

func (o *countingObserver) ObserveLLMFailure(stage string) {
	o.stages = append(o.stages, stage)
}

func TestInstrumentedClientReportsFailures(t *testing.T) {
	observer := &countingObserver{}
	client := NewInstrumentedClient(&stubClient{err: errors.New("model down")}, "classify", observer)

	_, err := client.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, []string{"classify"}, observer.stages)
}

func TestInstrumentedClientPassesSuccessThrough(t *testing.T) {
	observer := &countingObserver{}
	client := NewInstrumentedClient(&stubClient{resp: Response{Text: "ok"}}, "generate", observer)

	resp, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Empty(t, observer.stages)
}

func TestInstrumentedClientNilInner(t *testing.T) {
	assert.Nil(t, NewInstrumentedClient(nil, "classify", &countingObserver{}))
}
