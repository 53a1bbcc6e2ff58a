package store

import (
	"context"
	"myJara/domain"
	"myJara/internal/repository/postgres"
	"myJara/internal/testutil"
	apperrors "myJara/pkg/errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *storeService {
	t.Helper()
	db := testutil.NewDB(t)
	return NewStoreService(postgres.NewStoreRepository(db), validator.New(), 100)
}

func TestRegisterStore(t *testing.T) {
	ctx := context.Background()

	t.Run("online store needs no location", func(t *testing.T) {
		svc := newService(t)
		got, err := svc.RegisterStore(ctx, "owner-1", RegisterStoreInput{Name: " Ada Brands ", Kind: "Brand"})
		require.NoError(t, err)
		assert.Equal(t, "Ada Brands", got.Name)
		assert.Equal(t, domain.StoreKindBrand, got.Kind)
		assert.Nil(t, got.Latitude)

		mine, err := svc.GetMyStore(ctx, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, got.ID, mine.ID)

		byID, err := svc.GetStore(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, "owner-1", byID.OwnerID)
	})

	t.Run("physical store keeps its fix", func(t *testing.T) {
		svc := newService(t)
		got, err := svc.RegisterStore(ctx, "owner-1", RegisterStoreInput{
			Name: "Balogun Stall", Kind: "retailer", IsPhysical: true,
			Location: &domain.GeoFix{Latitude: 6.4541, Longitude: 3.3947, AccuracyMeters: 12},
		})
		require.NoError(t, err)
		require.NotNil(t, got.LocationAccuracy)
		assert.Equal(t, 12.0, *got.LocationAccuracy)
		assert.Equal(t, 6.4541, *got.Latitude)
	})

	t.Run("one store per owner", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.RegisterStore(ctx, "owner-1", RegisterStoreInput{Name: "First", Kind: "retailer"})
		require.NoError(t, err)

		_, err = svc.RegisterStore(ctx, "owner-1", RegisterStoreInput{Name: "Second", Kind: "retailer"})
		assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
	})

	invalid := []struct {
		name  string
		input RegisterStoreInput
	}{
		{name: "missing name", input: RegisterStoreInput{Kind: "retailer"}},
		{name: "unknown kind", input: RegisterStoreInput{Name: "x", Kind: "distributor"}},
		{name: "bad logo url", input: RegisterStoreInput{Name: "x", Kind: "retailer", LogoURL: "not a url"}},
		{name: "physical without fix", input: RegisterStoreInput{Name: "x", Kind: "retailer", IsPhysical: true}},
		{name: "latitude out of range", input: RegisterStoreInput{Name: "x", Kind: "retailer", IsPhysical: true,
			Location: &domain.GeoFix{Latitude: 91, Longitude: 3, AccuracyMeters: 5}}},
		{name: "longitude out of range", input: RegisterStoreInput{Name: "x", Kind: "retailer", IsPhysical: true,
			Location: &domain.GeoFix{Latitude: 6, Longitude: -181, AccuracyMeters: 5}}},
		{name: "no accuracy", input: RegisterStoreInput{Name: "x", Kind: "retailer", IsPhysical: true,
			Location: &domain.GeoFix{Latitude: 6, Longitude: 3}}},
		{name: "fix too imprecise", input: RegisterStoreInput{Name: "x", Kind: "retailer", IsPhysical: true,
			Location: &domain.GeoFix{Latitude: 6, Longitude: 3, AccuracyMeters: 150}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t)
			_, err := svc.RegisterStore(ctx, "owner-1", tt.input)
			assert.True(t, apperrors.Is(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.RegisterStore(ctx, "", RegisterStoreInput{Name: "x", Kind: "retailer"})
		assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
	})
}

func TestGetMyStoreWithoutStore(t *testing.T) {
	svc := newService(t)
	_, err := svc.GetMyStore(context.Background(), "owner-9")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

// staleOwnerLookup misses the owner's store on the first lookup, as a
// registration racing another one for the same owner would.
type staleOwnerLookup struct {
	*postgres.StoreRepository
	calls int
}

func (s *staleOwnerLookup) FindByOwner(ctx context.Context, ownerID string) (domain.Store, error) {
	s.calls++
	if s.calls == 1 {
		return domain.Store{}, apperrors.NotFound("store", nil)
	}
	return s.StoreRepository.FindByOwner(ctx, ownerID)
}

func TestRegisterStoreLosingRaceIsConflict(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewStoreRepository(testutil.NewDB(t))

	winner := domain.Store{OwnerID: "owner-1", Name: "First", Kind: domain.StoreKindRetailer}
	require.NoError(t, repo.Create(ctx, &winner))

	stale := &staleOwnerLookup{StoreRepository: repo}
	svc := NewStoreService(stale, validator.New(), 100)

	_, err := svc.RegisterStore(ctx, "owner-1", RegisterStoreInput{Name: "Second", Kind: "retailer"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict), "got %v", err)
	assert.Equal(t, 2, stale.calls)
}
