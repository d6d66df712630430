package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdie/clasificados/server/avisos/domain"
	"github.com/xdie/clasificados/server/avisos/service"
)

type fakeAvisoStore struct {
	mu    sync.Mutex
	items []domain.Aviso
	fail  error
}

func (s *fakeAvisoStore) Create(_ context.Context, item domain.Aviso) (domain.Aviso, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return domain.Aviso{}, s.fail
	}
	s.items = append(s.items, item)
	return item, nil
}

func (s *fakeAvisoStore) List(_ context.Context) ([]domain.Aviso, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	return append([]domain.Aviso(nil), s.items...), nil
}

type recordingPublisher struct {
	keys     []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	return nil
}

type recordingFeed struct {
	payloads []any
}

func (f *recordingFeed) Broadcast(payload any) {
	f.payloads = append(f.payloads, payload)
}

func validAviso() domain.Aviso {
	return domain.Aviso{
		Titulo:      "Bicicleta",
		Telefono:    "555-1234",
		Descripcion: "Rodado 26",
		Categoria:   "Compra Venta",
	}
}

func TestCreateValidatesEveryMissingFieldCombination(t *testing.T) {
	required := []string{"titulo", "telefono", "descripcion", "categoria"}

	for mask := 0; mask < 1<<len(required); mask++ {
		item := validAviso()
		missing := []string{}
		for bit, name := range required {
			if mask&(1<<bit) == 0 {
				continue
			}
			missing = append(missing, name)
			switch name {
			case "titulo":
				item.Titulo = ""
			case "telefono":
				item.Telefono = "   "
			case "descripcion":
				item.Descripcion = ""
			case "categoria":
				item.Categoria = ""
			}
		}

		store := &fakeAvisoStore{}
		svc := service.NewListingService(store, nil, nil, nil)
		_, err := svc.Create(context.Background(), item)

		if len(missing) == 0 {
			assert.NoError(t, err)
			continue
		}
		require.ErrorIs(t, err, domain.ErrValidation, "missing %v must fail", missing)
		for _, name := range missing {
			assert.Contains(t, err.Error(), name)
		}
		assert.Empty(t, store.items, "nothing may be persisted when validation fails")
	}
}

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	store := &fakeAvisoStore{}
	svc := service.NewListingService(store, nil, nil, nil)

	created, err := svc.Create(context.Background(), validAviso())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotNil(t, created.Fotos)
	assert.Empty(t, created.Fotos)
}

func TestCreateAcceptsArbitraryPhotoPaths(t *testing.T) {
	// Photo paths are opaque strings; nothing checks they exist on disk.
	store := &fakeAvisoStore{}
	svc := service.NewListingService(store, nil, nil, nil)

	item := validAviso()
	item.Fotos = []string{"uploads/thumbnails/thumb-123-foto.png", "not/even/a/real/path"}
	created, err := svc.Create(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, item.Fotos, created.Fotos)
}

func TestCreatePublishesAndBroadcasts(t *testing.T) {
	store := &fakeAvisoStore{}
	publisher := &recordingPublisher{}
	feed := &recordingFeed{}
	svc := service.NewListingService(store, nil, publisher, feed)

	created, err := svc.Create(context.Background(), validAviso())
	require.NoError(t, err)

	require.Equal(t, []string{"aviso.created"}, publisher.keys)
	require.Len(t, feed.payloads, 1)
	assert.Equal(t, created, feed.payloads[0])
}

func TestListPreservesInsertionOrderAndFilters(t *testing.T) {
	store := &fakeAvisoStore{}
	svc := service.NewListingService(store, nil, nil, nil)

	first := validAviso()
	first.Titulo = "Bicicleta roja"
	second := validAviso()
	second.Titulo = "Auto usado"
	second.Descripcion = "Motor nuevo"

	for _, item := range []domain.Aviso{first, second} {
		_, err := svc.Create(context.Background(), item)
		require.NoError(t, err)
	}

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bicicleta roja", all[0].Titulo)
	assert.Equal(t, "Auto usado", all[1].Titulo)

	filtered, err := svc.List(context.Background(), "BICI")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Bicicleta roja", filtered[0].Titulo)

	byDescription, err := svc.List(context.Background(), "motor")
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, "Auto usado", byDescription[0].Titulo)
}

func TestCreateSurfacesPersistenceFailure(t *testing.T) {
	store := &fakeAvisoStore{fail: domain.ErrPersistence}
	svc := service.NewListingService(store, nil, nil, nil)

	_, err := svc.Create(context.Background(), validAviso())
	require.ErrorIs(t, err, domain.ErrPersistence)
}
