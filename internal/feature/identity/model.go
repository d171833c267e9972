package identity

import (
	"time"

	"gorm.io/gorm"

	"souqbridge-identity/internal/domain"
)

// IdentityModel is the base account row. Exactly one of the profile pointers
// is set and it must match Role.
type IdentityModel struct {
	ID              string  `gorm:"primaryKey;type:varchar(36)"`
	Email           string  `gorm:"uniqueIndex:uniq_identities_email;size:191;not null"`
	PasswordHash    string  `gorm:"size:100;not null"`
	Role            string  `gorm:"size:16;not null;check:chk_identities_profile,(role = 'buyer' AND buyer_profile_id IS NOT NULL AND seller_profile_id IS NULL) OR (role = 'seller' AND seller_profile_id IS NOT NULL AND buyer_profile_id IS NULL)"`
	DisplayName     string  `gorm:"size:128;not null"`
	BuyerProfileID  *string `gorm:"type:varchar(36);uniqueIndex"`
	SellerProfileID *string `gorm:"type:varchar(36);uniqueIndex"`

	BuyerProfile  *BuyerProfileModel  `gorm:"foreignKey:BuyerProfileID;constraint:OnDelete:RESTRICT"`
	SellerProfile *SellerProfileModel `gorm:"foreignKey:SellerProfileID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (IdentityModel) TableName() string { return "identities" }

type BuyerProfileModel struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	FullName        string    `gorm:"size:128;not null"`
	Gender          string    `gorm:"size:8;not null;check:chk_buyer_gender,gender IN ('male','female','other')"`
	Birthdate       time.Time `gorm:"type:date;not null"`
	Country         string    `gorm:"size:64;not null"`
	PhoneNumber     *string   `gorm:"size:32"`
	City            *string   `gorm:"size:64"`
	AddressLine1    *string   `gorm:"size:191"`
	AddressLine2    *string   `gorm:"size:191"`
	PostalCode      *string   `gorm:"size:16"`
	OnlineStatus    string    `gorm:"size:8;not null;default:offline;index"`
	LastLogin       *time.Time
	PrivacyAccepted bool      `gorm:"not null;default:false"`
	AccountStatus   string    `gorm:"size:16;not null;default:pending"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (BuyerProfileModel) TableName() string { return "buyer_profiles" }

type SellerProfileModel struct {
	ID                           string  `gorm:"primaryKey;type:varchar(36)"`
	CompanyName                  string  `gorm:"size:191;not null"`
	BusinessType                 string  `gorm:"size:64;not null"`
	CommercialRegistrationNumber string  `gorm:"size:64;not null"`
	TaxID                        string  `gorm:"size:64;not null"`
	VATNumber                    string  `gorm:"size:64;not null"`
	CompanyAddress               string  `gorm:"size:255;not null"`
	CompanyCountry               string  `gorm:"size:64;not null"`
	ContactPerson                string  `gorm:"size:128;not null"`
	ContactPosition              string  `gorm:"size:64;not null"`
	ContactPhone                 string  `gorm:"size:32;not null"`
	CommercialRegistrationFile   string  `gorm:"size:255;not null;check:chk_seller_cr_file,commercial_registration_file <> ''"`
	TaxFile                      string  `gorm:"size:255;not null;check:chk_seller_tax_file,tax_file <> ''"`
	LicenseFile                  *string `gorm:"size:255"`
	OnlineStatus                 string  `gorm:"size:8;not null;default:offline;index"`
	LastLogin                    *time.Time
	PrivacyAccepted              bool   `gorm:"not null;default:false"`
	AccountStatus                string `gorm:"size:16;not null;default:pending"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SellerProfileModel) TableName() string { return "seller_profiles" }

// Migrate creates or updates the three identity tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&BuyerProfileModel{}, &SellerProfileModel{}, &IdentityModel{})
}

func (m *IdentityModel) ToDomain() *domain.Identity {
	return &domain.Identity{
		ID:              m.ID,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		Role:            domain.Role(m.Role),
		DisplayName:     m.DisplayName,
		BuyerProfileID:  deref(m.BuyerProfileID),
		SellerProfileID: deref(m.SellerProfileID),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func (m *BuyerProfileModel) ToDomain() *domain.BuyerProfile {
	return &domain.BuyerProfile{
		ID:           m.ID,
		FullName:     m.FullName,
		Gender:       domain.Gender(m.Gender),
		Birthdate:    m.Birthdate,
		Country:      m.Country,
		PhoneNumber:  deref(m.PhoneNumber),
		City:         deref(m.City),
		AddressLine1: deref(m.AddressLine1),
		AddressLine2: deref(m.AddressLine2),
		PostalCode:   deref(m.PostalCode),
		OnlineStatus: domain.OnlineStatus(m.OnlineStatus),
		LastLogin:    m.LastLogin,
	}
}

func BuyerProfileFrom(p domain.BuyerProfile) *BuyerProfileModel {
	return &BuyerProfileModel{
		ID:              p.ID,
		FullName:        p.FullName,
		Gender:          string(p.Gender),
		Birthdate:       p.Birthdate,
		Country:         p.Country,
		PhoneNumber:     ptr(p.PhoneNumber),
		City:            ptr(p.City),
		AddressLine1:    ptr(p.AddressLine1),
		AddressLine2:    ptr(p.AddressLine2),
		PostalCode:      ptr(p.PostalCode),
		OnlineStatus:    string(domain.StatusOffline),
		PrivacyAccepted: true,
		AccountStatus:   "pending",
	}
}

func (m *SellerProfileModel) ToDomain() *domain.SellerProfile {
	return &domain.SellerProfile{
		ID:                           m.ID,
		CompanyName:                  m.CompanyName,
		BusinessType:                 m.BusinessType,
		CommercialRegistrationNumber: m.CommercialRegistrationNumber,
		TaxID:                        m.TaxID,
		VATNumber:                    m.VATNumber,
		CompanyAddress:               m.CompanyAddress,
		CompanyCountry:               m.CompanyCountry,
		ContactPerson:                m.ContactPerson,
		ContactPosition:              m.ContactPosition,
		ContactPhone:                 m.ContactPhone,
		CommercialRegistrationFile:   m.CommercialRegistrationFile,
		TaxFile:                      m.TaxFile,
		LicenseFile:                  deref(m.LicenseFile),
		OnlineStatus:                 domain.OnlineStatus(m.OnlineStatus),
		LastLogin:                    m.LastLogin,
	}
}

func SellerProfileFrom(p domain.SellerProfile) *SellerProfileModel {
	return &SellerProfileModel{
		ID:                           p.ID,
		CompanyName:                  p.CompanyName,
		BusinessType:                 p.BusinessType,
		CommercialRegistrationNumber: p.CommercialRegistrationNumber,
		TaxID:                        p.TaxID,
		VATNumber:                    p.VATNumber,
		CompanyAddress:               p.CompanyAddress,
		CompanyCountry:               p.CompanyCountry,
		ContactPerson:                p.ContactPerson,
		ContactPosition:              p.ContactPosition,
		ContactPhone:                 p.ContactPhone,
		CommercialRegistrationFile:   p.CommercialRegistrationFile,
		TaxFile:                      p.TaxFile,
		LicenseFile:                  ptr(p.LicenseFile),
		OnlineStatus:                 string(domain.StatusOffline),
		PrivacyAccepted:              true,
		AccountStatus:                "pending",
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
