package service

import (
	"context"
	"errors"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

const entityProvider = "provider"

// ProviderInput is the body used to create or replace a provider profile.
type ProviderInput struct {
	BusinessName string          `json:"business_name" validate:"required,max=255"`
	Description  string          `json:"description" validate:"max=5000"`
	ServiceTypes []string        `json:"service_types" validate:"required,min=1,dive,required,max=100"`
	ServiceArea  *model.Location `json:"service_area"`
	HourlyRate   *float64        `json:"hourly_rate" validate:"omitempty,gte=0"`
}

// ProviderService manages provider profiles and their verification.
type ProviderService struct {
	*Deps
}

func NewProviderService(d *Deps) *ProviderService { return &ProviderService{Deps: d} }

// Create registers the calling provider's profile as pending verification.
func (s *ProviderService) Create(ctx context.Context, actor Actor, in ProviderInput) (*model.ServiceProvider, error) {
	if !actor.IsProvider() {
		return nil, apperror.Forbidden("only provider accounts can create a provider profile")
	}
	p := &model.ServiceProvider{
		UserID:             actor.UserID,
		BusinessName:       in.BusinessName,
		Description:        in.Description,
		ServiceTypes:       model.StringList(in.ServiceTypes),
		ServiceArea:        in.ServiceArea,
		HourlyRate:         in.HourlyRate,
		VerificationStatus: model.VerificationPending,
	}
	if err := s.Store.CreateProvider(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("provider profile already exists")
		}
		return nil, mapErr(err, entityProvider)
	}
	s.logger().Info("provider profile created", "provider_id", p.UserID)
	return p, nil
}

func (s *ProviderService) Get(ctx context.Context, id string) (*model.ServiceProvider, error) {
	p, err := s.Store.GetProvider(ctx, id)
	if err != nil {
		return nil, mapErr(err, entityProvider)
	}
	return p, nil
}

// List returns providers.  Non-admins only ever see verified providers.
func (s *ProviderService) List(ctx context.Context, actor Actor, f model.ProviderFilter, p model.Page) (model.PageResult[model.ServiceProvider], error) {
	if !actor.IsAdmin() {
		f.VerificationStatus = model.VerificationVerified
	}
	items, total, err := s.Store.ListProviders(ctx, f, p)
	if err != nil {
		return model.PageResult[model.ServiceProvider]{}, mapErr(err, entityProvider)
	}
	return model.PageResult[model.ServiceProvider]{Data: items, Pagination: p.Paginate(total)}, nil
}

// UpdateMine replaces the caller's profile fields.  Verification status is
// untouched.
func (s *ProviderService) UpdateMine(ctx context.Context, actor Actor, in ProviderInput) (*model.ServiceProvider, error) {
	if !actor.IsProvider() {
		return nil, apperror.Forbidden("only providers have a profile")
	}
	var out *model.ServiceProvider
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		p, err := q.LockProvider(ctx, actor.UserID)
		if err != nil {
			return mapErr(err, entityProvider)
		}
		p.BusinessName = in.BusinessName
		p.Description = in.Description
		p.ServiceTypes = model.StringList(in.ServiceTypes)
		p.ServiceArea = in.ServiceArea
		p.HourlyRate = in.HourlyRate
		if err := q.UpdateProvider(ctx, p); err != nil {
			return mapErr(err, entityProvider)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetVerification is the admin decision on a provider.
func (s *ProviderService) SetVerification(ctx context.Context, actor Actor, id string, status model.VerificationStatus) (*model.ServiceProvider, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can verify providers")
	}
	if !status.Valid() {
		return nil, apperror.Validation("unknown verification status %q", status)
	}
	if err := s.Store.SetProviderVerification(ctx, id, status); err != nil {
		return nil, mapErr(err, entityProvider)
	}
	s.Metrics.Transition("provider", string(status))
	s.logger().Info("provider verification set", "provider_id", id, "status", status, "by", actor.UserID)
	return s.Get(ctx, id)
}

// requireVerified loads the caller's profile and checks it is verified.
func requireVerified(ctx context.Context, q repository.Querier, providerID string) error {
	p, err := q.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Forbidden("create a provider profile first")
		}
		return mapErr(err, entityProvider)
	}
	if !p.Verified() {
		return apperror.Forbidden("provider is not verified")
	}
	return nil
}
