package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"souqbridge-identity/internal/core/cache"
	"souqbridge-identity/internal/core/logger"
	"souqbridge-identity/internal/domain"
	"souqbridge-identity/internal/validate"
	"souqbridge-identity/pkg/utils"
)

// Login checks credentials, marks the profile online and issues a token.
// Unknown email and wrong password fail identically.
func (a *Accounts) Login(ctx context.Context, email, password string, extended bool) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		logins.WithLabelValues("invalid_input").Inc()
		return nil, domain.Validation("email and password are required")
	}

	ident, err := a.repo.FindByEmail(ctx, email)
	switch {
	case isNotFound(err):
		utils.BurnPasswordCheck(password)
		logins.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		logins.WithLabelValues("error").Inc()
		return nil, err
	}
	if !utils.CheckPassword(password, ident.PasswordHash) {
		logins.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if err := a.repo.UpdatePresence(ctx, ident.ID, ident.Role, domain.StatusOnline); err != nil {
		logins.WithLabelValues("error").Inc()
		return nil, err
	}
	sess, err := a.session(ident, extended)
	if err != nil {
		logins.WithLabelValues("error").Inc()
		return nil, err
	}
	logins.WithLabelValues("ok").Inc()
	return sess, nil
}

// Logout revokes token until its natural expiry and marks the profile
// offline. Both steps are best effort; an invalid token is not an error.
func (a *Accounts) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return
	}
	if err := a.denylist.Revoke(ctx, claims.ID, claims.TTL(a.now())); err != nil {
		logger.Ctx(ctx, a.log).Warn("revoke session", zap.Error(err))
	}
	if err := a.repo.UpdatePresence(ctx, claims.SubjectID(), claims.Role, domain.StatusOffline); err != nil && !isNotFound(err) {
		logger.Ctx(ctx, a.log).Warn("presence offline", zap.String("identity", claims.SubjectID()), zap.Error(err))
	}
}

type nameEntry struct {
	DisplayName string `json:"displayName"`
}

// VerifyToken reports whether token is a live session and, if so, the
// holder's display name. It never fails.
func (a *Accounts) VerifyToken(ctx context.Context, token string) (bool, string) {
	p, err := a.Authenticate(ctx, token)
	if err != nil {
		return false, ""
	}
	entry, err := cache.GetOrLoadJSON(a.cache, ctx, "identity:"+p.SubjectID+":name", a.nameTTL,
		func(ctx context.Context) (*nameEntry, error) {
			ident, err := a.repo.FindByID(ctx, p.SubjectID)
			if isNotFound(err) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &nameEntry{DisplayName: utils.FirstWord(ident.DisplayName, "Account")}, nil
		})
	switch {
	case err != nil:
		logger.Ctx(ctx, a.log).Warn("display name lookup", zap.Error(err))
		return true, ""
	case entry == nil:
		return false, ""
	}
	return true, entry.DisplayName
}

// SaveToken checks a client-held token so it can be re-set as a cookie.
func (a *Accounts) SaveToken(ctx context.Context, token string) (*domain.Principal, error) {
	return a.Authenticate(ctx, token)
}

// Account is the caller's identity with its role-specific profile.
type Account struct {
	*domain.Identity
	Buyer  *domain.BuyerProfile  `json:"buyer,omitempty"`
	Seller *domain.SellerProfile `json:"seller,omitempty"`
}

// Me loads the caller's account. A principal whose identity no longer
// exists, or whose role disagrees with the stored one, is unauthenticated.
func (a *Accounts) Me(ctx context.Context, p *domain.Principal) (*Account, error) {
	ident, err := a.repo.FindByID(ctx, p.SubjectID)
	if isNotFound(err) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}
	if ident.Role != p.Role {
		return nil, ErrInvalidSession
	}
	out := &Account{Identity: ident}
	switch ident.Role {
	case domain.RoleBuyer:
		out.Buyer, err = a.repo.FindBuyerProfile(ctx, ident.BuyerProfileID)
	case domain.RoleSeller:
		out.Seller, err = a.repo.FindSellerProfile(ctx, ident.SellerProfileID)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DocumentRef is one stored seller document.
type DocumentRef struct {
	Field     string `json:"field"`
	Key       string `json:"key"`
	Available bool   `json:"available"`
}

// SellerDocuments lists the caller's document references.
func (a *Accounts) SellerDocuments(ctx context.Context, p *domain.Principal) ([]DocumentRef, error) {
	if !p.Allowed(domain.RoleSeller) {
		return nil, domain.Forbidden("forbidden")
	}
	acct, err := a.Me(ctx, p)
	if err != nil {
		return nil, err
	}
	refs := []DocumentRef{
		{Field: validate.FileCommercialRegistration, Key: acct.Seller.CommercialRegistrationFile},
		{Field: validate.FileTax, Key: acct.Seller.TaxFile},
	}
	if acct.Seller.LicenseFile != "" {
		refs = append(refs, DocumentRef{Field: validate.FileLicense, Key: acct.Seller.LicenseFile})
	}
	for i := range refs {
		ok, err := a.docs.Exists(refs[i].Key)
		if err != nil {
			logger.Ctx(ctx, a.log).Warn("document stat", zap.String("key", refs[i].Key), zap.Error(err))
		}
		refs[i].Available = ok
	}
	return refs, nil
}
