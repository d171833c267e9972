package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ParseRole accepts only the two registrable roles.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleBuyer, RoleSeller:
		return Role(s), true
	}
	return "", false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type OnlineStatus string

const (
	StatusOnline  OnlineStatus = "online"
	StatusOffline OnlineStatus = "offline"
)

// Identity is the account aggregate root. Role never changes after creation.
type Identity struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	DisplayName     string    `json:"displayName"`
	BuyerProfileID  string    `json:"buyerProfileId,omitempty"`
	SellerProfileID string    `json:"sellerProfileId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ProfileID returns the role-specific profile pointer.
func (i *Identity) ProfileID() string {
	if i.Role == RoleSeller {
		return i.SellerProfileID
	}
	return i.BuyerProfileID
}

type BuyerProfile struct {
	ID           string       `json:"id"`
	FullName     string       `json:"fullName"`
	Gender       Gender       `json:"gender"`
	Birthdate    time.Time    `json:"birthdate"`
	Country      string       `json:"country"`
	PhoneNumber  string       `json:"phoneNumber,omitempty"`
	City         string       `json:"city,omitempty"`
	AddressLine1 string       `json:"addressLine1,omitempty"`
	AddressLine2 string       `json:"addressLine2,omitempty"`
	PostalCode   string       `json:"postalCode,omitempty"`
	OnlineStatus OnlineStatus `json:"onlineStatus"`
	LastLogin    *time.Time   `json:"lastLogin,omitempty"`
}

type SellerProfile struct {
	ID                           string       `json:"id"`
	CompanyName                  string       `json:"companyName"`
	BusinessType                 string       `json:"businessType"`
	CommercialRegistrationNumber string       `json:"commercialRegistrationNumber"`
	TaxID                        string       `json:"taxId"`
	VATNumber                    string       `json:"vatNumber"`
	CompanyAddress               string       `json:"companyAddress"`
	CompanyCountry               string       `json:"companyCountry"`
	ContactPerson                string       `json:"contactPerson"`
	ContactPosition              string       `json:"contactPosition"`
	ContactPhone                 string       `json:"contactPhone"`
	CommercialRegistrationFile   string       `json:"commercialRegistrationFile"`
	TaxFile                      string       `json:"taxFile"`
	LicenseFile                  string       `json:"licenseFile,omitempty"`
	OnlineStatus                 OnlineStatus `json:"onlineStatus"`
	LastLogin                    *time.Time   `json:"lastLogin,omitempty"`
}

// NewBuyer is what the store needs to create a buyer account.
type NewBuyer struct {
	IdentityID   string
	Email        string
	PasswordHash string
	Profile      BuyerProfile
}

// NewSeller is what the store needs to create a seller account. The two
// required document locations must be set.
type NewSeller struct {
	IdentityID   string
	Email        string
	PasswordHash string
	Profile      SellerProfile
}

// IdentityRepository is the identity store contract. Implementations enforce
// email uniqueness at the storage layer and return ErrDuplicateEmail on collision.
type IdentityRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateBuyer(ctx context.Context, rec NewBuyer) (string, error)
	CreateSeller(ctx context.Context, rec NewSeller) (string, error)
	UpdatePresence(ctx context.Context, identityID string, role Role, status OnlineStatus) error
	SetAllOffline(ctx context.Context) (int64, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	FindBuyerProfile(ctx context.Context, profileID string) (*BuyerProfile, error)
	FindSellerProfile(ctx context.Context, profileID string) (*SellerProfile, error)
	Ping(ctx context.Context) error
}

// Principal is the verified caller attached to a request by the gate. It is
// the only input for role decisions downstream.
type Principal struct {
	SubjectID string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

// Allowed reports whether p's role is in roles. An empty list allows any
// authenticated caller.
func (p *Principal) Allowed(roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
