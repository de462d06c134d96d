package s8r

import (
	"io"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/s8r-framework/s8r/internal/config"
	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/adapters/memory"
	redisAdapter "github.com/s8r-framework/s8r/pkg/adapters/redis"
	"github.com/s8r-framework/s8r/pkg/observability"
	"github.com/s8r-framework/s8r/pkg/ports"
	"github.com/s8r-framework/s8r/pkg/services"
)

// Version is the framework release version.
var Version = "0.1.0"

// Framework is the high-level entry point for the library. It wires the
// repositories, event dispatcher and data-flow hub into the application
// services and provides a simplified API for consumers.
type Framework struct {
	cfg        config.Config
	logger     *slog.Logger
	components *services.ComponentService
	machines   *services.MachineService
	flow       *services.DataFlowService
	dispatcher *memory.Dispatcher

	componentRepo ports.ComponentRepository
	machineRepo   ports.MachineRepository
	locker        ports.DistributedLocker
	closers       []io.Closer
}

// Option defines a functional option for configuring the Framework.
type Option func(*Framework)

// WithConfig supplies a full configuration, bypassing the defaults.
func WithConfig(cfg config.Config) Option {
	return func(f *Framework) {
		f.cfg = cfg
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Framework) {
		f.logger = logger
	}
}

// WithComponentRepository injects a custom component store, bypassing the
// backend selected by the configuration.
func WithComponentRepository(repo ports.ComponentRepository) Option {
	return func(f *Framework) {
		f.componentRepo = repo
	}
}

// WithMachineRepository injects a custom machine store.
func WithMachineRepository(repo ports.MachineRepository) Option {
	return func(f *Framework) {
		f.machineRepo = repo
	}
}

// WithDistributedLocker enables cross-process locking for component and
// machine mutations.
func WithDistributedLocker(locker ports.DistributedLocker) Option {
	return func(f *Framework) {
		f.locker = locker
	}
}

// New initializes the framework. By default it uses in-memory adapters;
// when the configuration names a Redis address, component and machine
// state is persisted there instead.
func New(opts ...Option) (*Framework, error) {
	f := &Framework{cfg: config.Default()}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		level, err := f.cfg.SlogLevel()
		if err != nil {
			return nil, err
		}
		f.logger = logging.New(level)
	}

	if f.componentRepo == nil || f.machineRepo == nil {
		if f.cfg.RedisEnabled() {
			f.setupRedis()
		} else {
			if f.componentRepo == nil {
				f.componentRepo = memory.NewComponentRepository()
			}
			if f.machineRepo == nil {
				f.machineRepo = memory.NewMachineRepository()
			}
		}
	}

	f.dispatcher = memory.NewDispatcher(f.logger)
	observability.RegisterMetricsHandlers(f.dispatcher)

	hub := memory.NewDataFlow(f.logger)

	componentOpts := []services.ComponentOption{
		services.WithComponentLogger(f.logger),
		services.WithComponentDataFlow(hub),
	}
	machineOpts := []services.MachineOption{
		services.WithMachineLogger(f.logger),
	}
	if f.locker != nil {
		componentOpts = append(componentOpts, services.WithComponentLocker(f.locker))
		machineOpts = append(machineOpts, services.WithMachineLocker(f.locker))
	}

	f.components = services.NewComponentService(f.componentRepo, f.dispatcher, componentOpts...)
	f.machines = services.NewMachineService(f.machineRepo, f.componentRepo, f.dispatcher, machineOpts...)
	f.flow = services.NewDataFlowService(f.componentRepo, hub, f.dispatcher,
		services.WithDataFlowLogger(f.logger))

	return f, nil
}

// setupRedis builds the Redis-backed repositories over a shared client.
func (f *Framework) setupRedis() {
	client := backend.NewClient(&backend.Options{
		Addr:     f.cfg.Redis.Addr,
		Password: f.cfg.Redis.Password,
		DB:       f.cfg.Redis.DB,
	})
	f.closers = append(f.closers, client)

	repoOpts := []redisAdapter.Option{}
	if f.cfg.Redis.Prefix != "" {
		repoOpts = append(repoOpts, redisAdapter.WithPrefix(f.cfg.Redis.Prefix))
	}
	if f.cfg.Redis.TTL > 0 {
		repoOpts = append(repoOpts, redisAdapter.WithTTL(f.cfg.Redis.TTL))
	}

	if f.componentRepo == nil {
		f.componentRepo = redisAdapter.NewComponentRepositoryFromClient(client, repoOpts...)
	}
	if f.machineRepo == nil {
		f.machineRepo = redisAdapter.NewMachineRepositoryFromClient(client, repoOpts...)
	}
	if f.locker == nil && f.cfg.Redis.Lock {
		f.locker = redisAdapter.NewLocker(client, f.cfg.Redis.Prefix)
	}
}

// Components returns the component service.
func (f *Framework) Components() *services.ComponentService {
	return f.components
}

// Machines returns the machine service.
func (f *Framework) Machines() *services.MachineService {
	return f.machines
}

// DataFlow returns the data-flow service.
func (f *Framework) DataFlow() *services.DataFlowService {
	return f.flow
}

// Dispatcher returns the event dispatcher, for registering custom
// event handlers.
func (f *Framework) Dispatcher() *memory.Dispatcher {
	return f.dispatcher
}

// ComponentRepository returns the underlying component store, for
// adapters that persist components outside the services.
func (f *Framework) ComponentRepository() ports.ComponentRepository {
	return f.componentRepo
}

// Config returns the effective configuration.
func (f *Framework) Config() config.Config {
	return f.cfg
}

// Logger returns the framework logger.
func (f *Framework) Logger() *slog.Logger {
	return f.logger
}

// Close releases any backend connections held by the framework.
func (f *Framework) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
