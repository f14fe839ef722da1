package domain

import (
	"context"
	"errors"
	"time"
)

// UserType distinguishes admins from customers in the user store.
type UserType string

const (
	TypeAdmin    UserType = "admin"
	TypeCustomer UserType = "customer"
)

// CustomerProfile holds the driver details captured at customer signup.
type CustomerProfile struct {
	PermitNumber          string `json:"permitNumber"`
	Phone                 string `json:"phone"`
	IssueDate             string `json:"issueDate"`
	ExpiryDate            string `json:"expiryDate"`
	BirthDate             string `json:"birthDate"`
	Address               string `json:"address"`
	DriversPermitURL      string `json:"driversPermitUrl"`
	Nationality           string `json:"nationality,omitempty"`
	PassportNumber        string `json:"passportNumber,omitempty"`
	EmergencyContactName  string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string `json:"emergencyContactPhone,omitempty"`
}

// AppUser is a user record keyed by the identity provider's uid.
type AppUser struct {
	UID        string           `json:"uid"`
	Email      string           `json:"email"`
	FirstName  string           `json:"firstName"`
	LastName   string           `json:"lastName"`
	Type       UserType         `json:"type"`
	CreatedAt  time.Time        `json:"created_at"`
	PhotoURL   string           `json:"photoURL,omitempty"`
	LastLogin  *time.Time       `json:"lastLogin,omitempty"`
	IsDisabled bool             `json:"isDisabled,omitempty"`
	Profile    *CustomerProfile `json:"profile,omitempty"`
}

// IsAdmin reports whether the user carries the admin type.
func (u AppUser) IsAdmin() bool { return u.Type == TypeAdmin }

// Repository abstracts the user store.
type Repository interface {
	GetByID(ctx context.Context, uid string) (AppUser, error)
	ListByType(ctx context.Context, t UserType) ([]AppUser, error)
	Upsert(ctx context.Context, u AppUser) error
	Delete(ctx context.Context, uid string) error
}

// Service encapsulates user lookups and admin actions.
type Service interface {
	Get(ctx context.Context, uid string) (AppUser, error)
	// Admins returns admin users that have an email address.
	Admins(ctx context.Context) ([]AppUser, error)
	// Delete removes uid on behalf of actorUID, who must be an admin.
	Delete(ctx context.Context, actorUID, uid string) error
}

var (
	ErrNotFound  = errors.New("user not found")
	ErrForbidden = errors.New("admin access required")
)
