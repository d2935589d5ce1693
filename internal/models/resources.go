package models

import "time"

// Resource is a CRUD record owned by a tenant or a landlord.
// Columns and Values list only the client-writable columns, in the same order.
type Resource interface {
	TableName() string
	OwnerColumn() string
	Columns() []string
	Values() []any
}

// UsageTracked resources carry a usage counter.
type UsageTracked interface {
	UsageColumn() string
}

type TenantReference struct {
	ID                   int64      `db:"id" json:"id"`
	TenantID             int64      `db:"tenant_id" json:"tenantId"`
	Name                 string     `db:"name" json:"name" validate:"required,max=200"`
	Relationship         string     `db:"relationship" json:"relationship" validate:"required,oneof=previous_landlord current_landlord employer personal professional roommate family"`
	Email                string     `db:"email" json:"email" validate:"required,email"`
	Phone                string     `db:"phone" json:"phone" validate:"required,max=32"`
	Notes                string     `db:"notes" json:"notes,omitempty" validate:"max=2000"`
	IsVerified           bool       `db:"is_verified" json:"isVerified"`
	VerificationDate     *time.Time `db:"verification_date" json:"verificationDate,omitempty"`
	VerificationRating   *string    `db:"verification_rating" json:"verificationRating,omitempty"`
	VerificationComments *string    `db:"verification_comments" json:"verificationComments,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

func (r TenantReference) GetID() int64      { return r.ID }
func (TenantReference) TableName() string   { return "tenant_references" }
func (TenantReference) OwnerColumn() string { return "tenant_id" }
func (TenantReference) Columns() []string {
	return []string{"name", "relationship", "email", "phone", "notes"}
}
func (r TenantReference) Values() []any {
	return []any{r.Name, r.Relationship, r.Email, r.Phone, r.Notes}
}

type RecipientContact struct {
	ID           int64     `db:"id" json:"id"`
	LandlordID   int64     `db:"landlord_id" json:"landlordId"`
	Name         string    `db:"name" json:"name" validate:"required,max=200"`
	Email        string    `db:"email" json:"email" validate:"omitempty,email"`
	Phone        string    `db:"phone" json:"phone" validate:"max=32"`
	Company      string    `db:"company" json:"company" validate:"max=200"`
	Notes        string    `db:"notes" json:"notes" validate:"max=2000"`
	ReceiveEmail bool      `db:"receive_email" json:"receiveEmail"`
	ReceiveSMS   bool      `db:"receive_sms" json:"receiveSms"`
	UsageCount   int       `db:"usage_count" json:"usageCount"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func (c RecipientContact) GetID() int64      { return c.ID }
func (RecipientContact) TableName() string   { return "recipient_contacts" }
func (RecipientContact) OwnerColumn() string { return "landlord_id" }
func (RecipientContact) UsageColumn() string { return "usage_count" }
func (RecipientContact) Columns() []string {
	return []string{"name", "email", "phone", "company", "notes", "receive_email", "receive_sms"}
}
func (c RecipientContact) Values() []any {
	return []any{c.Name, c.Email, c.Phone, c.Company, c.Notes, c.ReceiveEmail, c.ReceiveSMS}
}

type CommunicationTemplate struct {
	ID         int64     `db:"id" json:"id"`
	LandlordID int64     `db:"landlord_id" json:"landlordId"`
	Name       string    `db:"name" json:"name" validate:"required,max=200"`
	Subject    string    `db:"subject" json:"subject" validate:"max=300"`
	Body       string    `db:"body" json:"body" validate:"required,max=10000"`
	Category   string    `db:"category" json:"category" validate:"max=100"`
	UsageCount int       `db:"usage_count" json:"usageCount"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

func (t CommunicationTemplate) GetID() int64      { return t.ID }
func (CommunicationTemplate) TableName() string   { return "communication_templates" }
func (CommunicationTemplate) OwnerColumn() string { return "landlord_id" }
func (CommunicationTemplate) UsageColumn() string { return "usage_count" }
func (CommunicationTemplate) Columns() []string {
	return []string{"name", "subject", "body", "category"}
}
func (t CommunicationTemplate) Values() []any {
	return []any{t.Name, t.Subject, t.Body, t.Category}
}

type TenantMessageTemplate struct {
	ID         int64     `db:"id" json:"id"`
	TenantID   int64     `db:"tenant_id" json:"tenantId"`
	Name       string    `db:"name" json:"name" validate:"required,max=200"`
	Subject    string    `db:"subject" json:"subject" validate:"max=300"`
	Body       string    `db:"body" json:"body" validate:"required,max=10000"`
	Category   string    `db:"category" json:"category" validate:"max=100"`
	UsageCount int       `db:"usage_count" json:"usageCount"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

func (t TenantMessageTemplate) GetID() int64      { return t.ID }
func (TenantMessageTemplate) TableName() string   { return "tenant_message_templates" }
func (TenantMessageTemplate) OwnerColumn() string { return "tenant_id" }
func (TenantMessageTemplate) UsageColumn() string { return "usage_count" }
func (TenantMessageTemplate) Columns() []string {
	return []string{"name", "subject", "body", "category"}
}
func (t TenantMessageTemplate) Values() []any {
	return []any{t.Name, t.Subject, t.Body, t.Category}
}

type CommunicationLog struct {
	ID         int64      `db:"id" json:"id"`
	LandlordID int64      `db:"landlord_id" json:"landlordId"`
	ContactID  *int64     `db:"contact_id" json:"contactId,omitempty"`
	TemplateID *int64     `db:"template_id" json:"templateId,omitempty"`
	Channel    string     `db:"channel" json:"channel" validate:"required,oneof=email sms"`
	Subject    string     `db:"subject" json:"subject"`
	Body       string     `db:"body" json:"body" validate:"required"`
	Status     string     `db:"status" json:"status" validate:"required,oneof=sent failed"`
	SentAt     *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

func (l CommunicationLog) GetID() int64      { return l.ID }
func (CommunicationLog) TableName() string   { return "communication_logs" }
func (CommunicationLog) OwnerColumn() string { return "landlord_id" }
func (CommunicationLog) Columns() []string {
	return []string{"contact_id", "template_id", "channel", "subject", "body", "status", "sent_at"}
}
func (l CommunicationLog) Values() []any {
	return []any{l.ContactID, l.TemplateID, l.Channel, l.Subject, l.Body, l.Status, l.SentAt}
}
