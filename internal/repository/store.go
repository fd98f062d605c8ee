package repository

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

// IndexFunc returns the indexed field values of an entity, keyed by field.
type IndexFunc[E any] func(e *E) map[string]string

// Option configures a repository.
type Option[E models.Entity] func(*store[E])

// WithIndexes maintains a secondary index for every field fn returns.
func WithIndexes[E models.Entity](fn IndexFunc[E]) Option[E] {
	return func(s *store[E]) { s.indexes = fn }
}

// WithLogger sets the logger used to report skipped records.
func WithLogger[E models.Entity](logger *slog.Logger) Option[E] {
	return func(s *store[E]) { s.logger = logger }
}

// store holds the list and index algorithms shared by the global and the
// user-scoped repositories. Every method works inside one keyspace.
type store[E models.Entity] struct {
	db      *database.Redis
	codec   *Codec[E]
	indexes IndexFunc[E]
	logger  *slog.Logger
}

func newStore[E models.Entity](db *database.Redis, opts ...Option[E]) store[E] {
	s := store[E]{
		db:     db,
		codec:  NewCodec[E](),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s *store[E]) indexValues(e *E) map[string]string {
	if s.indexes == nil || e == nil {
		return nil
	}
	return s.indexes(e)
}

func (s *store[E]) findByID(ctx context.Context, ks keyspace, id string) (*E, error) {
	key := ks.entity(id)
	fields, err := s.db.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	e, err := s.codec.Decode(fields)
	if err != nil {
		return nil, withKey(err, key)
	}
	return e, nil
}

// fetch loads the given ids in one round trip, preserving their order.
// Ids without a hash and records that fail to decode are skipped.
func (s *store[E]) fetch(ctx context.Context, ks keyspace, ids []string) ([]*E, error) {
	if len(ids) == 0 {
		return []*E{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	err := s.db.Pipelined(ctx, func(b *database.Batch) {
		for i, id := range ids {
			cmds[i] = b.HGetAll(ks.entity(id))
		}
	})
	if err != nil {
		return nil, err
	}

	out := make([]*E, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		e, err := s.codec.Decode(fields)
		if err != nil {
			s.logger.Warn("skipping undecodable record",
				slog.String("key", ks.entity(ids[i])),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *store[E]) findAll(ctx context.Context, ks keyspace) ([]*E, error) {
	ids, err := s.db.LRange(ctx, ks.list(), 0, -1)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, ks, ids)
}

func (s *store[E]) findPaginated(ctx context.Context, ks keyspace, p models.PaginationParams) (*models.Page[*E], error) {
	p = p.Normalize()

	total, err := s.db.LLen(ctx, ks.list())
	if err != nil {
		return nil, err
	}

	start := int64(p.Offset())
	ids, err := s.db.LRange(ctx, ks.list(), start, start+int64(p.Limit)-1)
	if err != nil {
		return nil, err
	}

	items, err := s.fetch(ctx, ks, ids)
	if err != nil {
		return nil, err
	}
	return models.NewPage(items, int(total), p), nil
}

// save writes the hash, moves the id to the front of the list and moves
// every changed index entry from the stored value to the new one, all in a
// single pipeline.
func (s *store[E]) save(ctx context.Context, ks keyspace, e *E) (*E, error) {
	id := (*e).EntityID()
	if id == "" {
		return nil, errors.New("save entity: empty id")
	}

	fields, err := s.codec.Encode(e)
	if err != nil {
		return nil, err
	}

	fresh := s.indexValues(e)
	var stale map[string]string
	if fresh != nil {
		prev, err := s.findByID(ctx, ks, id)
		if err != nil && !errors.Is(err, ErrDecode) {
			return nil, err
		}
		stale = s.indexValues(prev)
	}

	key, list := ks.entity(id), ks.list()
	err = s.db.Pipelined(ctx, func(b *database.Batch) {
		b.HSet(key, fields)
		b.LRem(list, id)
		b.LPush(list, id)
		for field, old := range stale {
			if cur, ok := fresh[field]; !ok || cur != old {
				b.SRem(ks.index(field, old), id)
			}
		}
		for field, value := range fresh {
			b.SAdd(ks.index(field, value), id)
		}
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// delete removes the index entries first, then the hash and the list entry.
func (s *store[E]) delete(ctx context.Context, ks keyspace, id string) (bool, error) {
	key := ks.entity(id)

	var stale map[string]string
	if s.indexes != nil {
		prev, err := s.findByID(ctx, ks, id)
		switch {
		case errors.Is(err, ErrDecode):
			s.logger.Warn("deleting undecodable record, index entries left behind",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		case err != nil:
			return false, err
		case prev == nil:
			return false, nil
		}
		stale = s.indexValues(prev)
	} else {
		exists, err := s.db.Exists(ctx, key)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
	}

	err := s.db.Pipelined(ctx, func(b *database.Batch) {
		for field, value := range stale {
			b.SRem(ks.index(field, value), id)
		}
		b.Delete(key)
		b.LRem(ks.list(), id)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// deleteAll deletes every entity referenced by the list along with its index
// entries, then the list itself. It returns the number of hashes removed.
func (s *store[E]) deleteAll(ctx context.Context, ks keyspace) (int, error) {
	ids, err := s.db.LRange(ctx, ks.list(), 0, -1)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var entities []*E
	if s.indexes != nil {
		entities, err = s.fetch(ctx, ks, ids)
		if err != nil {
			return 0, err
		}
	}

	dels := make([]*redis.IntCmd, len(ids))
	err = s.db.Pipelined(ctx, func(b *database.Batch) {
		for _, e := range entities {
			id := (*e).EntityID()
			for field, value := range s.indexValues(e) {
				b.SRem(ks.index(field, value), id)
			}
		}
		for i, id := range ids {
			dels[i] = b.Delete(ks.entity(id))
		}
		b.Delete(ks.list())
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, cmd := range dels {
		deleted += int(cmd.Val())
	}
	return deleted, nil
}

func (s *store[E]) exists(ctx context.Context, ks keyspace, id string) (bool, error) {
	return s.db.Exists(ctx, ks.entity(id))
}

func (s *store[E]) count(ctx context.Context, ks keyspace) (int, error) {
	n, err := s.db.LLen(ctx, ks.list())
	return int(n), err
}

// findByField returns the entities in the (field, value) index ordered by id.
func (s *store[E]) findByField(ctx context.Context, ks keyspace, field, value string) ([]*E, error) {
	ids, err := s.indexMembers(ctx, ks, field, value)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, ks, ids)
}

func (s *store[E]) indexMembers(ctx context.Context, ks keyspace, field, value string) ([]string, error) {
	ids, err := s.db.SMembers(ctx, ks.index(field, value))
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *store[E]) createIndex(ctx context.Context, ks keyspace, id, field, value string) error {
	return s.db.SAdd(ctx, ks.index(field, value), id)
}

func (s *store[E]) removeIndex(ctx context.Context, ks keyspace, id, field, value string) error {
	return s.db.SRem(ctx, ks.index(field, value), id)
}
