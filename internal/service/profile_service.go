package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// profileService implements ProfileService.
type profileService struct {
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(profileRepo repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		logger:      logger.With().Str("service", "profile").Logger(),
	}
}

func (s *profileService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	return s.profileRepo.ListAddresses(ctx, userID)
}

func (s *profileService) CreateAddress(ctx context.Context, userID uuid.UUID, req *model.CreateAddressRequest) (*model.Address, error) {
	if req.Line1 == "" || req.City == "" || req.Postcode == "" || req.Country == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Line1, city, postcode and country are required")
	}

	a := &model.Address{
		ID:        uuid.New(),
		UserID:    userID,
		Label:     req.Label,
		Line1:     req.Line1,
		Line2:     req.Line2,
		City:      req.City,
		Postcode:  req.Postcode,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	}
	if err := s.profileRepo.CreateAddress(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Str("address_id", a.ID.String()).
		Msg("address created")

	return a, nil
}

func (s *profileService) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	return s.profileRepo.DeleteAddress(ctx, userID, id)
}

func (s *profileService) SetDefaultAddress(ctx context.Context, userID, id uuid.UUID) error {
	return s.profileRepo.SetDefaultAddress(ctx, userID, id)
}

func (s *profileService) ListShippingMethods(ctx context.Context) ([]model.ShippingMethod, error) {
	return s.profileRepo.ListShippingMethods(ctx)
}
