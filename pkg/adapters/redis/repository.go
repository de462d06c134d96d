package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// DefaultPrefix namespaces all keys written by this package.
const DefaultPrefix = "s8r:"

// indexScoreInfinite is the ZSET score used when no TTL is configured.
// 2100-01-01, far enough out to never be pruned.
const indexScoreInfinite = 4102444800

type options struct {
	prefix string
	ttl    time.Duration
}

type Option func(*options)

// WithTTL sets the expiration for stored entities. Zero means no
// expiration.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func applyOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ComponentRepository implements ports.ComponentRepository on Redis.
type ComponentRepository struct {
	client *backend.Client
	opts   options
}

// NewComponentRepository creates a repository with its own client.
func NewComponentRepository(address, password string, db int, opts ...Option) *ComponentRepository {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewComponentRepositoryFromClient(client, opts...)
}

// NewComponentRepositoryFromClient creates a repository from an existing
// client.
func NewComponentRepositoryFromClient(client *backend.Client, opts ...Option) *ComponentRepository {
	return &ComponentRepository{client: client, opts: applyOptions(opts)}
}

var _ ports.ComponentRepository = (*ComponentRepository)(nil)

func (r *ComponentRepository) componentKey(id string) string {
	return r.opts.prefix + "component:" + id
}

func (r *ComponentRepository) compositeKey(id string) string {
	return r.opts.prefix + "composite:" + id
}

func (r *ComponentRepository) indexKey() string {
	return r.opts.prefix + "component:index"
}

func (r *ComponentRepository) Save(ctx context.Context, c *domain.Component) error {
	if c == nil {
		return fmt.Errorf("save component: nil component")
	}
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal component: %w", err)
	}
	return r.write(ctx, c.ID().String(), func(pipe backend.Pipeliner) {
		pipe.Set(ctx, r.componentKey(c.ID().String()), data, r.opts.ttl)
	})
}

func (r *ComponentRepository) SaveComposite(ctx context.Context, c *domain.Composite) error {
	if c == nil {
		return fmt.Errorf("save composite: nil composite")
	}
	snap := c.Snapshot()
	compositeData, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal composite: %w", err)
	}
	componentData, err := json.Marshal(snap.Component)
	if err != nil {
		return fmt.Errorf("marshal composite component: %w", err)
	}
	return r.write(ctx, c.ID().String(), func(pipe backend.Pipeliner) {
		pipe.Set(ctx, r.compositeKey(c.ID().String()), compositeData, r.opts.ttl)
		pipe.Set(ctx, r.componentKey(c.ID().String()), componentData, r.opts.ttl)
	})
}

// write runs set commands plus index maintenance in one pipeline.
func (r *ComponentRepository) write(ctx context.Context, id string, sets func(backend.Pipeliner)) error {
	pipe := r.client.Pipeline()
	sets(pipe)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{
		Score:  indexScore(r.opts.ttl),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

func (r *ComponentRepository) FindByID(ctx context.Context, id domain.ComponentID) (*domain.Component, error) {
	val, err := r.client.Get(ctx, r.componentKey(id.String())).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("component %s: %w", id.ShortID(), domain.ErrComponentNotFound)
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}
	var snap domain.ComponentSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal component: %w", err)
	}
	return domain.RestoreComponent(snap)
}

func (r *ComponentRepository) FindCompositeByID(ctx context.Context, id domain.ComponentID) (*domain.Composite, error) {
	val, err := r.client.Get(ctx, r.compositeKey(id.String())).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("composite %s: %w", id.ShortID(), domain.ErrComponentNotFound)
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}
	var snap domain.CompositeSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal composite: %w", err)
	}
	return domain.RestoreComposite(snap)
}

func (r *ComponentRepository) FindAll(ctx context.Context) ([]*domain.Component, error) {
	ids, err := listIndex(ctx, r.client, r.indexKey())
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Component, 0, len(ids))
	for _, id := range ids {
		val, err := r.client.Get(ctx, r.componentKey(id)).Result()
		if err == backend.Nil {
			// Key expired but index not yet pruned.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get from redis: %w", err)
		}
		var snap domain.ComponentSnapshot
		if err := json.Unmarshal([]byte(val), &snap); err != nil {
			return nil, fmt.Errorf("unmarshal component: %w", err)
		}
		c, err := domain.RestoreComponent(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *ComponentRepository) FindChildren(ctx context.Context, parentID domain.ComponentID) ([]*domain.Component, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*domain.Component
	for _, c := range all {
		if pid, ok := c.ID().ParentID(); ok && pid == parentID.Value() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *ComponentRepository) Delete(ctx context.Context, id domain.ComponentID) error {
	exists, err := r.client.Exists(ctx, r.componentKey(id.String())).Result()
	if err != nil {
		return fmt.Errorf("check redis key: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("component %s: %w", id.ShortID(), domain.ErrComponentNotFound)
	}
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.componentKey(id.String()))
	pipe.Del(ctx, r.compositeKey(id.String()))
	pipe.ZRem(ctx, r.indexKey(), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete from redis: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *ComponentRepository) Close() error {
	return r.client.Close()
}

// MachineRepository implements ports.MachineRepository on Redis.
type MachineRepository struct {
	client *backend.Client
	opts   options
}

// NewMachineRepository creates a repository with its own client.
func NewMachineRepository(address, password string, db int, opts ...Option) *MachineRepository {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewMachineRepositoryFromClient(client, opts...)
}

// NewMachineRepositoryFromClient creates a repository from an existing
// client.
func NewMachineRepositoryFromClient(client *backend.Client, opts ...Option) *MachineRepository {
	return &MachineRepository{client: client, opts: applyOptions(opts)}
}

var _ ports.MachineRepository = (*MachineRepository)(nil)

func (r *MachineRepository) machineKey(id string) string {
	return r.opts.prefix + "machine:" + id
}

func (r *MachineRepository) indexKey() string {
	return r.opts.prefix + "machine:index"
}

func (r *MachineRepository) Save(ctx context.Context, m *domain.Machine) error {
	if m == nil {
		return fmt.Errorf("save machine: nil machine")
	}
	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal machine: %w", err)
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.machineKey(m.ID().String()), data, r.opts.ttl)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{
		Score:  indexScore(r.opts.ttl),
		Member: m.ID().String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

func (r *MachineRepository) FindByID(ctx context.Context, id domain.ComponentID) (*domain.Machine, error) {
	val, err := r.client.Get(ctx, r.machineKey(id.String())).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("machine %s: %w", id.ShortID(), domain.ErrMachineNotFound)
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}
	var snap domain.MachineSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal machine: %w", err)
	}
	return domain.RestoreMachine(snap)
}

func (r *MachineRepository) FindAll(ctx context.Context) ([]*domain.Machine, error) {
	ids, err := listIndex(ctx, r.client, r.indexKey())
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Machine, 0, len(ids))
	for _, id := range ids {
		val, err := r.client.Get(ctx, r.machineKey(id)).Result()
		if err == backend.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get from redis: %w", err)
		}
		var snap domain.MachineSnapshot
		if err := json.Unmarshal([]byte(val), &snap); err != nil {
			return nil, fmt.Errorf("unmarshal machine: %w", err)
		}
		m, err := domain.RestoreMachine(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MachineRepository) Delete(ctx context.Context, id domain.ComponentID) error {
	exists, err := r.client.Exists(ctx, r.machineKey(id.String())).Result()
	if err != nil {
		return fmt.Errorf("check redis key: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("machine %s: %w", id.ShortID(), domain.ErrMachineNotFound)
	}
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.machineKey(id.String()))
	pipe.ZRem(ctx, r.indexKey(), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete from redis: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *MachineRepository) Close() error {
	return r.client.Close()
}

func indexScore(ttl time.Duration) float64 {
	if ttl == 0 {
		return indexScoreInfinite
	}
	return float64(time.Now().Add(ttl).Unix())
}

// listIndex prunes expired members, then returns the remaining IDs.
func listIndex(ctx context.Context, client *backend.Client, key string) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("prune expired entries: %w", err)
	}
	ids, err := client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}
	return ids, nil
}
