// Package validate turns a raw registration form into a typed, normalized
// record for exactly one role.
package validate

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"souqbridge-identity/internal/domain"
	"souqbridge-identity/pkg/utils"
)

// Form field names accepted on POST /register.
const (
	FieldRole                   = "role"
	FieldEmail                  = "email"
	FieldPassword               = "password"
	FieldConfirmPassword        = "confirmPassword"
	FieldName                   = "name"
	FieldGender                 = "gender"
	FieldBirthdate              = "birthdate"
	FieldCountry                = "country"
	FieldPhoneNumber            = "phone_number"
	FieldCity                   = "city"
	FieldAddressLine1           = "address_line1"
	FieldAddressLine2           = "address_line2"
	FieldPostalCode             = "postal_code"
	FieldCompanyName            = "company_name"
	FieldBusinessType           = "business_type"
	FieldCommercialRegistration = "commercial_registration"
	FieldTaxID                  = "tax_id"
	FieldCompanyAddress         = "company_address"
	FieldCompanyCountry         = "company_country"
	FieldVATNumber              = "vat_number"
	FieldContactPerson          = "contact_person"
	FieldContactPosition        = "contact_position"
	FieldContactPhone           = "contact_phone"

	FileCommercialRegistration = "commercial_registration_file"
	FileTax                    = "tax_file"
	FileLicense                = "license_file"
)

// Credentials are the role-independent part of a registration.
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// Registration is either a BuyerRegistration or a SellerRegistration.
type Registration interface {
	Role() domain.Role
	Creds() Credentials
	DisplayName() string
	registration()
}

type BuyerRegistration struct {
	Credentials
	Profile domain.BuyerProfile
}

func (BuyerRegistration) Role() domain.Role { return domain.RoleBuyer }
func (r BuyerRegistration) Creds() Credentials { return r.Credentials }
func (BuyerRegistration) registration() {}
func (r BuyerRegistration) DisplayName() string { return utils.FirstWord(r.Profile.FullName, "Account") }

// Documents holds the checked seller attachments. License is optional.
type Documents struct {
	CommercialRegistration Attachment
	Tax                    Attachment
	License                *Attachment
}

// Each calls fn for every present document, keyed by form field.
func (d Documents) Each(fn func(field string, a Attachment) error) error {
	if err := fn(FileCommercialRegistration, d.CommercialRegistration); err != nil {
		return err
	}
	if err := fn(FileTax, d.Tax); err != nil {
		return err
	}
	if d.License != nil {
		return fn(FileLicense, *d.License)
	}
	return nil
}

// SellerRegistration leaves the profile's document locations empty; they are
// filled once the documents are staged.
type SellerRegistration struct {
	Credentials
	Profile   domain.SellerProfile
	Documents Documents
}

func (SellerRegistration) Role() domain.Role { return domain.RoleSeller }
func (r SellerRegistration) Creds() Credentials { return r.Credentials }
func (SellerRegistration) registration() {}
func (r SellerRegistration) DisplayName() string { return utils.FirstWord(r.Profile.CompanyName, "Account") }

// Validator checks registration forms fail-fast: the first broken rule is
// the only one reported.
type Validator struct {
	Files Policy
	Now   func() time.Time

	v *validator.Validate
}

func New(maxFileBytes int64) *Validator {
	return &Validator{
		Files: DefaultPolicy(maxFileBytes),
		Now:   time.Now,
		v:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Email reports whether s is a syntactically valid address.
func (v *Validator) Email(s string) bool {
	return s != "" && len(s) <= 191 && v.v.Var(s, "email") == nil
}

// Validate checks, in order: role, email, password and confirmation, the
// role's required fields ending with privacy consent, then seller documents.
func (v *Validator) Validate(role string, fields map[string]string, files map[string]Attachment) (Registration, error) {
	get := func(k string) string { return strings.TrimSpace(fields[k]) }

	r, ok := domain.ParseRole(strings.TrimSpace(role))
	if !ok {
		if strings.TrimSpace(role) == "" {
			return nil, domain.Validation("account type is required")
		}
		return nil, domain.Validation("account type must be buyer or seller")
	}

	creds, err := v.credentials(r, fields, get)
	if err != nil {
		return nil, err
	}

	switch r {
	case domain.RoleBuyer:
		return v.buyer(creds, get)
	default:
		return v.seller(creds, get, files)
	}
}

func (v *Validator) credentials(r domain.Role, fields map[string]string, get func(string) string) (Credentials, error) {
	email := get(FieldEmail)
	if email == "" {
		return Credentials{}, domain.Validation("email is required")
	}
	if !v.Email(email) {
		return Credentials{}, domain.Validation("email is not valid")
	}

	// passwords are taken verbatim
	pw, confirm := fields[FieldPassword], fields[FieldConfirmPassword]
	if pw == "" || confirm == "" {
		return Credentials{}, domain.Validation("password and confirmation are required")
	}
	if pw != confirm {
		return Credentials{}, domain.Validation("passwords do not match")
	}
	if len(pw) > utils.MaxPasswordBytes {
		return Credentials{}, domain.Validation("password is too long")
	}

	remember := Checked(get(string(r) + "_rememberMe"))
	if !remember {
		remember = Checked(get("rememberMe"))
	}
	return Credentials{Email: strings.ToLower(email), Password: pw, RememberMe: remember}, nil
}

func (v *Validator) buyer(creds Credentials, get func(string) string) (Registration, error) {
	if err := requireAll(get, FieldName, FieldGender, FieldBirthdate, FieldCountry); err != nil {
		return nil, err
	}
	gender, ok := NormalizeGender(get(FieldGender))
	if !ok {
		return nil, domain.Validation("gender is not recognized")
	}
	birth, err := v.birthdate(get(FieldBirthdate))
	if err != nil {
		return nil, err
	}
	if !Checked(get("buyer_privacyCheckbox")) {
		return nil, domain.Validation("privacy policy must be accepted")
	}
	return BuyerRegistration{
		Credentials: creds,
		Profile: domain.BuyerProfile{
			FullName:     get(FieldName),
			Gender:       gender,
			Birthdate:    birth,
			Country:      get(FieldCountry),
			PhoneNumber:  get(FieldPhoneNumber),
			City:         get(FieldCity),
			AddressLine1: get(FieldAddressLine1),
			AddressLine2: get(FieldAddressLine2),
			PostalCode:   get(FieldPostalCode),
			OnlineStatus: domain.StatusOffline,
		},
	}, nil
}

var sellerRequired = []string{
	FieldCompanyName,
	FieldBusinessType,
	FieldCommercialRegistration,
	FieldTaxID,
	FieldCompanyAddress,
	FieldCompanyCountry,
	FieldVATNumber,
	FieldContactPerson,
	FieldContactPosition,
	FieldContactPhone,
}

func (v *Validator) seller(creds Credentials, get func(string) string, files map[string]Attachment) (Registration, error) {
	if err := requireAll(get, sellerRequired...); err != nil {
		return nil, err
	}
	if !Checked(get("seller_privacyCheckbox")) {
		return nil, domain.Validation("privacy policy must be accepted")
	}

	cr, okCR := files[FileCommercialRegistration]
	tax, okTax := files[FileTax]
	if !okCR || !okTax {
		return nil, domain.Validation("commercial registration and tax documents are required")
	}
	docs := Documents{CommercialRegistration: cr, Tax: tax}
	if lic, ok := files[FileLicense]; ok {
		docs.License = &lic
	}
	if err := docs.Each(v.Files.Check); err != nil {
		return nil, err
	}

	return SellerRegistration{
		Credentials: creds,
		Profile: domain.SellerProfile{
			CompanyName:                  get(FieldCompanyName),
			BusinessType:                 get(FieldBusinessType),
			CommercialRegistrationNumber: get(FieldCommercialRegistration),
			TaxID:                        get(FieldTaxID),
			VATNumber:                    get(FieldVATNumber),
			CompanyAddress:               get(FieldCompanyAddress),
			CompanyCountry:               get(FieldCompanyCountry),
			ContactPerson:                get(FieldContactPerson),
			ContactPosition:              get(FieldContactPosition),
			ContactPhone:                 get(FieldContactPhone),
			OnlineStatus:                 domain.StatusOffline,
		},
		Documents: docs,
	}, nil
}

func (v *Validator) birthdate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, domain.Validation("birthdate must be YYYY-MM-DD")
	}
	if t.After(v.Now()) {
		return time.Time{}, domain.Validation("birthdate is in the future")
	}
	return t, nil
}

func requireAll(get func(string) string, keys ...string) error {
	for _, k := range keys {
		if get(k) == "" {
			return domain.Validation(k + " is required")
		}
	}
	return nil
}

// Checked reports whether a checkbox or boolean form value is set.
func Checked(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
