package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"souqbridge-identity/internal/core/logger"
	"souqbridge-identity/internal/domain"
	"souqbridge-identity/internal/storage"
	"souqbridge-identity/internal/validate"
	"souqbridge-identity/pkg/utils"
)

// RegistrationState is how far a registration got. States only move forward;
// a failure ends the attempt in the state it had reached.
type RegistrationState int

const (
	Received RegistrationState = iota
	Validated
	CredentialHashed
	Persisted
	TokenIssued
)

func (s RegistrationState) String() string {
	switch s {
	case Received:
		return "received"
	case Validated:
		return "validated"
	case CredentialHashed:
		return "credential_hashed"
	case Persisted:
		return "persisted"
	case TokenIssued:
		return "token_issued"
	}
	return "unknown"
}

// RegisterInput is the raw multipart form.
type RegisterInput struct {
	Role   string
	Fields map[string]string
	Files  map[string]validate.Attachment
}

// RegisterError reports the state a failed registration stopped in.
type RegisterError struct {
	State RegistrationState
	Err   error
}

func (e *RegisterError) Error() string { return e.Err.Error() }
func (e *RegisterError) Unwrap() error { return e.Err }

// Register validates, hashes, persists and signs in a new account. Seller
// documents are staged before the insert and moved into place after it
// commits; a failed attempt leaves no staged files behind.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (sess *Session, err error) {
	state := Received
	role := "unknown"
	defer func() {
		result := "ok"
		if err != nil {
			result = "failed"
			err = &RegisterError{State: state, Err: err}
		}
		registrations.WithLabelValues(role, result, state.String()).Inc()
	}()

	reg, err := a.validator.Validate(in.Role, in.Fields, in.Files)
	if err != nil {
		return nil, err
	}
	role = string(reg.Role())
	state = Validated

	creds := reg.Creds()
	exists, err := a.repo.EmailExists(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := utils.HashPassword(creds.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, domain.Validation("password is too long")
	}
	if err != nil {
		return nil, domain.Storage("could not create account", err)
	}
	state = CredentialHashed

	identityID := a.newID()
	switch r := reg.(type) {
	case validate.BuyerRegistration:
		profile := r.Profile
		profile.ID = a.newID()
		_, err = a.repo.CreateBuyer(ctx, domain.NewBuyer{
			IdentityID: identityID, Email: creds.Email, PasswordHash: hash, Profile: profile,
		})
	case validate.SellerRegistration:
		err = a.createSeller(ctx, identityID, creds.Email, hash, r)
	default:
		err = errors.New("unknown registration variant")
	}
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateEmail) && domain.KindOf(err) != domain.KindValidation {
			logger.Ctx(ctx, a.log).Warn("register failed", zap.String("role", role), zap.String("email", creds.Email), zap.Error(err))
		}
		return nil, err
	}
	state = Persisted

	sess, err = a.session(&domain.Identity{ID: identityID, Role: reg.Role(), DisplayName: reg.DisplayName()}, creds.RememberMe)
	if err != nil {
		// the account exists; the client has to sign in instead of retrying
		return nil, domain.Storage("account created, please sign in", err)
	}
	state = TokenIssued
	return sess, nil
}

func (a *Accounts) createSeller(ctx context.Context, identityID, email, hash string, r validate.SellerRegistration) error {
	attemptID := a.newID()
	profile := r.Profile
	profile.ID = a.newID()

	var files []storage.File
	_ = r.Documents.Each(func(field string, att validate.Attachment) error {
		files = append(files, storage.File{Field: field, Ext: att.Ext(), Open: att.Open})
		key := storage.Key(profile.ID, field, att.Ext())
		switch field {
		case validate.FileCommercialRegistration:
			profile.CommercialRegistrationFile = key
		case validate.FileTax:
			profile.TaxFile = key
		case validate.FileLicense:
			profile.LicenseFile = key
		}
		return nil
	})

	if err := a.docs.Stage(attemptID, files); err != nil {
		if domain.KindOf(err) == 0 {
			return domain.Storage("could not store documents", err)
		}
		return err
	}
	if _, err := a.repo.CreateSeller(ctx, domain.NewSeller{
		IdentityID: identityID, Email: email, PasswordHash: hash, Profile: profile,
	}); err != nil {
		if derr := a.docs.Discard(attemptID); derr != nil {
			logger.Ctx(ctx, a.log).Warn("discard staged documents", zap.String("attempt", attemptID), zap.Error(derr))
		}
		return err
	}
	if err := a.docs.Promote(attemptID, profile.ID, files); err != nil {
		// the row is already committed; keys point at files that need restoring
		promoteFailures.Inc()
		logger.Ctx(ctx, a.log).Error("promote documents", zap.String("attempt", attemptID), zap.String("profile", profile.ID), zap.Error(err))
	}
	return nil
}
