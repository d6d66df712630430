package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xdie/clasificados/server/avisos/domain"
	commonlog "github.com/xdie/clasificados/server/common/log"
)

const (
	listCacheKey = "avisos:all"
	listCacheTTL = 30 * time.Second
)

// AvisoStore is the persistence contract the listing service depends on.
type AvisoStore interface {
	Create(ctx context.Context, item domain.Aviso) (domain.Aviso, error)
	List(ctx context.Context) ([]domain.Aviso, error)
}

// EventPublisher emits created-listing events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Broadcaster pushes created listings to live subscribers.
type Broadcaster interface {
	Broadcast(payload any)
}

// ListingService creates and lists avisos, with a cache-aside read path and
// best-effort event fan-out on create.
type ListingService struct {
	store     AvisoStore
	cache     *redis.Client
	publisher EventPublisher
	feed      Broadcaster
}

func NewListingService(store AvisoStore, cache *redis.Client, publisher EventPublisher, feed Broadcaster) *ListingService {
	return &ListingService{store: store, cache: cache, publisher: publisher, feed: feed}
}

// Create validates the required fields, assigns an identifier and persists
// the aviso. Photo paths are stored as opaque strings.
func (s *ListingService) Create(ctx context.Context, item domain.Aviso) (domain.Aviso, error) {
	if err := validateRequired(item); err != nil {
		return domain.Aviso{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Fotos == nil {
		item.Fotos = []string{}
	}

	created, err := s.store.Create(ctx, item)
	if err != nil {
		return domain.Aviso{}, err
	}

	s.invalidateListCache(ctx)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "aviso.created", created); err != nil {
			commonlog.Warnf("publish aviso.created %s: %v", created.ID, err)
		}
	}
	if s.feed != nil {
		s.feed.Broadcast(created)
	}
	return created, nil
}

// List returns every aviso in insertion order, optionally filtered by a
// case-insensitive substring query. The full set is cached, not the
// filtered view.
func (s *ListingService) List(ctx context.Context, query string) ([]domain.Aviso, error) {
	if items, ok := s.cachedList(ctx); ok {
		return domain.FilterAvisos(items, query), nil
	}
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	s.storeListCache(ctx, items)
	return domain.FilterAvisos(items, query), nil
}

func validateRequired(item domain.Aviso) error {
	missing := make([]string, 0, 4)
	for _, field := range []struct {
		name  string
		value string
	}{
		{"titulo", item.Titulo},
		{"telefono", item.Telefono},
		{"descripcion", item.Descripcion},
		{"categoria", item.Categoria},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func (s *ListingService) cachedList(ctx context.Context) ([]domain.Aviso, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			commonlog.Warnf("read listing cache: %v", err)
		}
		return nil, false
	}
	var items []domain.Aviso
	if err := json.Unmarshal(raw, &items); err != nil {
		commonlog.Warnf("decode listing cache: %v", err)
		return nil, false
	}
	return items, true
}

func (s *ListingService) storeListCache(ctx context.Context, items []domain.Aviso) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, listCacheKey, raw, listCacheTTL).Err(); err != nil {
		commonlog.Warnf("write listing cache: %v", err)
	}
}

func (s *ListingService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listCacheKey).Err(); err != nil {
		commonlog.Warnf("invalidate listing cache: %v", err)
	}
}
