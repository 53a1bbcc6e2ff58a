package store

import (
	"context"
	"fmt"
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"myJara/pkg/logger"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StoreRepository contract interface
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	FindByID(ctx context.Context, id string) (domain.Store, error)
	FindByOwner(ctx context.Context, ownerID string) (domain.Store, error)
}

type RegisterStoreInput struct {
	Name       string         `json:"name" validate:"required,max=120"`
	Kind       string         `json:"kind" validate:"required,oneof=wholesaler brand retailer"`
	LogoURL    string         `json:"logo_url" validate:"omitempty,url"`
	Address    string         `json:"address" validate:"max=255"`
	IsPhysical bool           `json:"is_physical"`
	Location   *domain.GeoFix `json:"location"`
}

type storeService struct {
	storeRepo   StoreRepository
	validate    *validator.Validate
	maxAccuracy float64
}

func NewStoreService(storeRepo StoreRepository, validate *validator.Validate, maxAccuracyMeters float64) *storeService {
	if maxAccuracyMeters <= 0 {
		maxAccuracyMeters = 100
	}

	return &storeService{
		storeRepo:   storeRepo,
		validate:    validate,
		maxAccuracy: maxAccuracyMeters,
	}
}

// RegisterStore creates the caller's store. Each user owns at most one.
func (s *storeService) RegisterStore(ctx context.Context, ownerID string, input RegisterStoreInput) (*domain.Store, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when registering store")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if ownerID == "" {
		return nil, apperrors.Unauthorized("login required")
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Kind = strings.ToLower(strings.TrimSpace(input.Kind))
	if err := s.validate.Struct(input); err != nil {
		logger.Error("Invalid store data", err)
		return nil, apperrors.Validation(err.Error())
	}

	store := &domain.Store{
		OwnerID:    ownerID,
		Name:       input.Name,
		Kind:       input.Kind,
		LogoURL:    input.LogoURL,
		Address:    strings.TrimSpace(input.Address),
		IsPhysical: input.IsPhysical,
	}

	if input.IsPhysical {
		if err := s.checkLocation(input.Location); err != nil {
			logger.Error("Invalid store location", err)
			return nil, err
		}
		lat, lng, acc := input.Location.Latitude, input.Location.Longitude, input.Location.AccuracyMeters
		store.Latitude, store.Longitude, store.LocationAccuracy = &lat, &lng, &acc
	}

	_, err := s.storeRepo.FindByOwner(ctx, ownerID)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("you already have a store")
	case !apperrors.Is(err, apperrors.CodeNotFound):
		logger.Error("failed to check existing store", err)
		return nil, apperrors.Upstream("failed to register store", err)
	}

	if err := s.storeRepo.Create(ctx, store); err != nil {
		// a concurrent registration for the same owner wins the unique index
		if _, findErr := s.storeRepo.FindByOwner(ctx, ownerID); findErr == nil {
			return nil, apperrors.Conflict("you already have a store")
		}
		logger.Error("failed to create store", err)
		return nil, apperrors.Upstream("failed to register store", err)
	}

	logger.Info("store registered", "store_id", store.ID, "kind", store.Kind)

	return store, nil
}

// checkLocation rejects fixes that are out of range or too imprecise to place the store.
func (s *storeService) checkLocation(fix *domain.GeoFix) error {
	if fix == nil {
		return apperrors.Validation("physical stores need a location")
	}

	if fix.Latitude < -90 || fix.Latitude > 90 {
		return apperrors.Validation("latitude must be between -90 and 90")
	}

	if fix.Longitude < -180 || fix.Longitude > 180 {
		return apperrors.Validation("longitude must be between -180 and 180")
	}

	if fix.AccuracyMeters <= 0 {
		return apperrors.Validation("location accuracy must be positive")
	}

	if fix.AccuracyMeters > s.maxAccuracy {
		return apperrors.Validation(fmt.Sprintf("location accuracy is %.0fm, move closer to the store and retry (max %.0fm)", fix.AccuracyMeters, s.maxAccuracy))
	}

	return nil
}

func (s *storeService) GetMyStore(ctx context.Context, ownerID string) (*domain.Store, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("login required")
	}

	store, err := s.storeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("failed to find store by owner", err)
		return nil, err
	}

	return &store, nil
}

func (s *storeService) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	if id == "" {
		return nil, apperrors.Validation("invalid store id")
	}

	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("failed to find store", err)
		return nil, err
	}

	return &store, nil
}
