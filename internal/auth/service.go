package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
)

// ProfileStore is the profile persistence used by signup and login.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	Create(ctx context.Context, p *models.UserProfile) error
}

// Onboarder creates the organization for a business-tier signup.
type Onboarder interface {
	Onboard(ctx context.Context, owner *authz.Caller, companyName, businessType string) (*models.Organization, error)
}

// BusinessInfo is the optional business block of a signup.
type BusinessInfo struct {
	CompanyName  string
	BusinessType string
}

// SignupInput is a self-service account request.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Business  *BusinessInfo
}

// Session is returned by signup and login.
type Session struct {
	Token             string               `json:"token"`
	User              *models.UserProfile  `json:"user"`
	EffectiveRole     models.Role          `json:"effective_role"`
	Organization      *models.Organization `json:"organization,omitempty"`
	OrganizationError string               `json:"organization_error,omitempty"`
}

// Service implements signup and login.
type Service struct {
	profiles ProfileStore
	jwt      *JWTService
	orgs     Onboarder
	logger   *zap.Logger
}

// NewService creates an auth service. orgs may be nil when business signup is disabled.
func NewService(profiles ProfileStore, jwt *JWTService, orgs Onboarder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{profiles: profiles, jwt: jwt, orgs: orgs, logger: logger}
}

// Signup creates a profile. Organizers start pending approval; every other role is approved.
// When a business block is present the organization is created after the account; a failure
// there is reported in the session and the owner can retry through POST /organizations.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	role := models.RoleAttendee
	if in.Role != "" {
		r, ok := models.ParseRole(in.Role)
		if !ok || !r.SelfService() {
			return nil, apperr.InvalidInput("invalid role")
		}
		role = r
	}
	if in.Business != nil && strings.TrimSpace(in.Business.CompanyName) == "" {
		return nil, apperr.InvalidInput("company_name is required for business signup")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	p := &models.UserProfile{
		Email:          strings.TrimSpace(in.Email),
		PasswordHash:   hash,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           role,
		ApprovalStatus: models.InitialApproval(role),
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("account created",
		zap.String("user_id", p.ID.String()),
		zap.String("role", string(p.Role)),
		zap.String("approval_status", string(p.ApprovalStatus)),
	)

	sess, err := s.session(p)
	if err != nil {
		return nil, err
	}
	if in.Business != nil && s.orgs != nil {
		org, err := s.orgs.Onboard(ctx, authz.CallerFromProfile(p), in.Business.CompanyName, in.Business.BusinessType)
		if err != nil {
			s.logger.Warn("business signup: organization not created", zap.String("user_id", p.ID.String()), zap.Error(err))
			sess.OrganizationError = "organization could not be created; retry from your account"
		} else {
			sess.Organization = org
			p.OrganizationID = &org.ID
			p.IsOrgOwner = true
		}
	}
	return sess, nil
}

// Login verifies credentials. Rejected organizers may still log in and act as attendees;
// suspended accounts may not.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	p, err := s.profiles.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("invalid email or password")
		}
		return nil, err
	}
	if !CheckPassword(password, p.PasswordHash) {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	if !p.IsActive {
		return nil, apperr.Forbidden(apperr.ReasonForbiddenRole, "account is suspended")
	}
	return s.session(p)
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, caller *authz.Caller) (*models.UserProfile, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	return s.profiles.GetByID(ctx, caller.ID)
}

func (s *Service) session(p *models.UserProfile) (*Session, error) {
	token, err := s.jwt.Generate(p.ID, p.Email, string(p.Role))
	if err != nil {
		return nil, apperr.Internal("generate token", err)
	}
	return &Session{Token: token, User: p, EffectiveRole: authz.CallerFromProfile(p).EffectiveRole()}, nil
}
