package cli

import (
	"context"

	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/worker"
)

// Backend — где выполняются шаги: in-process или на step host.
type Backend interface {
	chain.Invoker

	// Steps возвращает имена шагов.
	Steps(ctx context.Context) ([]string, error)

	// Process вызывает шаг напрямую.
	Process(ctx context.Context, step string, req envelope.Request) (envelope.Response, error)
}

// LocalBackend выполняет шаги in-process через Executor.
type LocalBackend struct {
	Executor *worker.Executor
}

// Steps реализует Backend.
func (b LocalBackend) Steps(context.Context) ([]string, error) {
	return b.Executor.Registry().Names(), nil
}

// Process реализует Backend.
func (b LocalBackend) Process(ctx context.Context, step string, req envelope.Request) (envelope.Response, error) {
	resp, _, err := b.Executor.Execute(ctx, repo.TransportCLI, step, req)
	return resp, err
}

// Invoke реализует chain.Invoker.
func (b LocalBackend) Invoke(ctx context.Context, unit string, req envelope.Request) (envelope.Response, error) {
	return b.Executor.Invoke(ctx, unit, req)
}

// RemoteBackend выполняет шаги на step host.
type RemoteBackend struct {
	Client *Client
}

// Steps реализует Backend.
func (b RemoteBackend) Steps(ctx context.Context) ([]string, error) {
	list, err := b.Client.ListSteps(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names, nil
}

// Process реализует Backend.
func (b RemoteBackend) Process(ctx context.Context, step string, req envelope.Request) (envelope.Response, error) {
	return b.Client.Process(ctx, step, req)
}

// Invoke реализует chain.Invoker.
func (b RemoteBackend) Invoke(ctx context.Context, unit string, req envelope.Request) (envelope.Response, error) {
	return b.Client.Invoke(ctx, unit, req)
}
