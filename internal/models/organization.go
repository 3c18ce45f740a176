package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is driven by billing events outside this service, except for trial expiry.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// PlanFree is the plan every new organization starts on.
const PlanFree = "free"

// Organization represents a paying tenant.
type Organization struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	Slug               string             `json:"slug"`
	BusinessType       string             `json:"business_type,omitempty"`
	LogoURL            *string            `json:"logo_url,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	SubscriptionPlan   string             `json:"subscription_plan"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty"`
	CreatedBy          uuid.UUID          `json:"created_by"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
