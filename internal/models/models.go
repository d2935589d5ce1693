package models

import "time"

const (
	RelationshipPreviousLandlord = "previous_landlord"
	RelationshipCurrentLandlord  = "current_landlord"
	RelationshipEmployer         = "employer"
	RelationshipPersonal         = "personal"
	RelationshipProfessional     = "professional"
	RelationshipRoommate         = "roommate"
	RelationshipFamily           = "family"
)

const (
	RatingExcellent = "excellent"
	RatingGood      = "good"
	RatingFair      = "fair"
	RatingPoor      = "poor"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const (
	PurposeReferenceVerification = "reference_verification"
	PurposeReferenceVerified     = "reference_verified"
	PurposeCommunication         = "communication"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// ReferenceDetails is a reference joined with the tenant it vouches for.
type ReferenceDetails struct {
	ID           int64
	TenantID     int64
	Name         string
	Relationship string
	Email        string
	IsVerified   bool
	TenantName   string
	TenantEmail  string
}

// ReferenceVerificationInfo is what a reference-giver sees before submitting feedback.
type ReferenceVerificationInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	TenantName   string `json:"tenantName"`
	IsVerified   bool   `json:"isVerified"`
}

type VerificationToken struct {
	ID          string
	ReferenceID int64
	TokenHash   string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

func (t *VerificationToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}

// IsActive reports whether the token is neither used nor expired.
func (t *VerificationToken) IsActive() bool {
	return t.UsedAt == nil && !t.IsExpired()
}

type VerificationSubmission struct {
	ReferenceID int64
	Rating      string
	Comments    string
}

// Message is the notification queue payload.
type Message struct {
	Email   string `json:"to"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Link    string `json:"link,omitempty"`
	Purpose string `json:"purpose"`
	Channel string `json:"channel"`
}
