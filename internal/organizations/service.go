// Package organizations creates tenant organizations on a free trial and expires trials.
package organizations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/metrics"
	"github.com/aura-events/backend/pkg/storage"
	"github.com/aura-events/backend/pkg/utils"
)

const (
	slugSuffixLen = 6
	slugAttempts  = 5
)

// Store persists organizations.
type Store interface {
	CreateWithOwner(ctx context.Context, org *models.Organization, ownerID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	SetLogo(ctx context.Context, id uuid.UUID, url string) (*models.Organization, error)
	ExpireTrials(ctx context.Context, now time.Time) ([]models.Organization, error)
}

// Presigner issues direct-upload URLs for logos.
type Presigner interface {
	PresignLogoUpload(ctx context.Context, key, contentType string) (uploadURL, publicURL string, err error)
	PresignExpire() time.Duration
}

// CallerInvalidator drops cached callers after their profile changes.
type CallerInvalidator interface {
	Invalidate(id uuid.UUID)
}

// Service implements organization onboarding and the trial lifecycle.
type Service struct {
	store     Store
	presigner Presigner
	callers   CallerInvalidator
	metrics   *metrics.Metrics
	trial     time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an organizations service. presigner may be nil when logo upload is not configured.
func NewService(store Store, presigner Presigner, callers CallerInvalidator, m *metrics.Metrics, trial time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		presigner: presigner,
		callers:   callers,
		metrics:   m,
		trial:     trial,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is the body of an organization creation.
type CreateInput struct {
	Name         string
	BusinessType string
	LogoURL      *string
	// OwnerID defaults to the caller. Identity admins may create organizations for other users.
	OwnerID uuid.UUID
}

// Create starts a new organization on the free plan with a trial, owned by in.OwnerID.
func (s *Service) Create(ctx context.Context, caller *authz.Caller, in CreateInput) (*models.Organization, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	owner := in.OwnerID
	if owner == uuid.Nil {
		owner = caller.ID
	}
	if err := authz.Authorize(caller, authz.OrganizationCreate, authz.ForOwner(owner)).Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("company name is required")
	}
	if owner == caller.ID && caller.OrganizationID != nil {
		return nil, apperr.InvalidState("you already belong to an organization", caller.OrganizationID.String())
	}

	trialEnds := s.now().Add(s.trial)
	org := &models.Organization{
		Name:               name,
		BusinessType:       strings.TrimSpace(in.BusinessType),
		LogoURL:            in.LogoURL,
		SubscriptionStatus: models.SubscriptionTrialing,
		SubscriptionPlan:   models.PlanFree,
		TrialEndsAt:        &trialEnds,
		CreatedBy:          owner,
	}
	for attempt := 0; ; attempt++ {
		slug, err := utils.UniqueSlug(name, slugSuffixLen)
		if err != nil {
			return nil, apperr.Internal("generate slug", err)
		}
		org.Slug = slug
		err = s.store.CreateWithOwner(ctx, org, owner)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrSlugTaken) || attempt+1 >= slugAttempts {
			return nil, err
		}
	}
	if s.callers != nil {
		s.callers.Invalidate(owner)
	}
	s.logger.Info("organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.String("owner_id", owner.String()),
		zap.Time("trial_ends_at", trialEnds),
	)
	return org, nil
}

// Onboard creates the organization for a business signup, owned by the new account.
func (s *Service) Onboard(ctx context.Context, owner *authz.Caller, companyName, businessType string) (*models.Organization, error) {
	return s.Create(ctx, owner, CreateInput{Name: companyName, BusinessType: businessType})
}

// Get returns an organization to its members, its owner and identity admins.
func (s *Service) Get(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.Organization, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	org, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsActive && caller.OrganizationID != nil && *caller.OrganizationID == org.ID {
		return org, nil
	}
	if err := authz.Authorize(caller, authz.OrganizationManage, authz.ForOwner(org.CreatedBy)).Err(); err != nil {
		return nil, err
	}
	return org, nil
}

// LogoUpload is a presigned direct upload for an organization logo.
type LogoUpload struct {
	UploadURL string `json:"upload_url"`
	LogoURL   string `json:"logo_url"`
	ExpiresIn int    `json:"expires_in"`
}

// LogoUploadURL presigns a logo upload and records the URL the logo will be served from.
func (s *Service) LogoUploadURL(ctx context.Context, caller *authz.Caller, id uuid.UUID, filename, contentType string) (*LogoUpload, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if s.presigner == nil {
		return nil, apperr.InvalidState("logo upload is not configured", "")
	}
	org, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.OrganizationManage, authz.ForOwner(org.CreatedBy)).Err(); err != nil {
		return nil, err
	}
	if !storage.ValidateLogoFileType(contentType, filename) {
		return nil, apperr.InvalidInput("logo must be a png, jpeg, webp or svg image")
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(filename)
	}

	key := storage.LogoKey(org.ID.String(), filename)
	uploadURL, publicURL, err := s.presigner.PresignLogoUpload(ctx, key, contentType)
	if err != nil {
		return nil, apperr.Internal("presign logo upload", err)
	}
	if _, err := s.store.SetLogo(ctx, org.ID, publicURL); err != nil {
		return nil, err
	}
	return &LogoUpload{
		UploadURL: uploadURL,
		LogoURL:   publicURL,
		ExpiresIn: int(s.presigner.PresignExpire().Seconds()),
	}, nil
}

// SweepTrials moves organizations whose trial has ended to past_due. It runs from the worker.
func (s *Service) SweepTrials(ctx context.Context) (int, error) {
	expired, err := s.store.ExpireTrials(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, org := range expired {
		s.logger.Info("trial expired",
			zap.String("organization_id", org.ID.String()),
			zap.String("slug", org.Slug),
		)
	}
	if s.metrics != nil {
		s.metrics.TrialsExpiredTotal.Add(float64(len(expired)))
	}
	return len(expired), nil
}
