package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/skillcoder/dockguard/internal/logic/monitor"
)

// engineAPI is the slice of the docker client the adapter needs.
type engineAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerStatsOneShot(ctx context.Context, containerID string) (container.StatsResponseReader, error)
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	Ping(ctx context.Context) (types.Ping, error)
}

// Adapter talks to the docker engine API. It implements the runtime ports of
// both the resource monitor and the memory pressure manager.
type Adapter struct {
	logger   *slog.Logger
	cli      engineAPI
	cacheKey string
}

// New creates an adapter over an initialized docker client. cacheKey names
// the memory_stats entry to treat as reclaimable cache; empty selects the
// first of the known cgroup keys present in the payload.
func New(logger *slog.Logger, cli engineAPI, cacheKey string) *Adapter {
	return &Adapter{
		logger:   logger,
		cli:      cli,
		cacheKey: cacheKey,
	}
}

// NewClient builds the docker engine client from the environment, with an
// optional explicit host override.
func NewClient(host string) (*client.Client, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}

	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return cli, nil
}

// Name returns the name of the docker adapter for the pinger.
func (a *Adapter) Name() string {
	return "docker"
}

// Ping checks engine reachability.
func (a *Adapter) Ping(ctx context.Context) error {
	if _, err := a.cli.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker engine: %w", err)
	}

	return nil
}

// ListRunningQuery returns the names of running containers. The engine
// reports names with a leading slash which nothing else in the system uses.
func (a *Adapter) ListRunningQuery(ctx context.Context) ([]string, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	names := make([]string, 0, len(containers))

	for _, c := range containers {
		if len(c.Names) == 0 {
			a.logger.WarnContext(ctx, "container without a name skipped", "id", c.ID)

			continue
		}

		names = append(names, strings.TrimPrefix(c.Names[0], "/"))
	}

	return names, nil
}

// SampleQuery fetches a one-shot stats snapshot for the named container.
func (a *Adapter) SampleQuery(ctx context.Context, name string) (*monitor.RawSample, error) {
	resp, err := a.cli.ContainerStatsOneShot(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, &ContainerNotFoundError{Name: name}
		}

		return nil, fmt.Errorf("stats for container %s: %w", name, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			a.logger.WarnContext(ctx, "close stats body", "container", name, "reason", closeErr)
		}
	}()

	var stats container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode stats for container %s: %w", name, err)
	}

	return rawSample(name, &stats, a.cacheKey), nil
}

// SystemMemoryPercentQuery returns host memory usage as a percentage.
func (a *Adapter) SystemMemoryPercentQuery(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("read system memory: %w", err)
	}

	return vm.UsedPercent, nil
}

// StopCommand stops the named container using the engine's default timeout.
func (a *Adapter) StopCommand(ctx context.Context, name string) error {
	if err := a.cli.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return fmt.Errorf("stop container %s: %w", name, err)
	}

	return nil
}

// StartCommand starts the named container.
func (a *Adapter) StartCommand(ctx context.Context, name string) error {
	if err := a.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", name, err)
	}

	return nil
}
