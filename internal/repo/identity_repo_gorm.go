package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"souqbridge-identity/internal/domain"
	"souqbridge-identity/internal/feature/identity"
)

// IdentityRepo is the gorm-backed identity store. Every call is bounded by
// timeout; a deadline or a dead pool yields a retryable storage error.
type IdentityRepo struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

var _ domain.IdentityRepository = (*IdentityRepo)(nil)

func NewIdentityRepo(db *gorm.DB, timeout time.Duration) *IdentityRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IdentityRepo{db: db, timeout: timeout, now: time.Now}
}

// NormalizeEmail is the canonical form stored and looked up.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (r *IdentityRepo) withTimeout(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func (r *IdentityRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()
	var n int64
	err := db.Model(&identity.IdentityModel{}).Where("email = ?", NormalizeEmail(email)).Count(&n).Error
	if err != nil {
		return false, storageErr("check email", err)
	}
	return n > 0, nil
}

func (r *IdentityRepo) CreateBuyer(ctx context.Context, rec domain.NewBuyer) (string, error) {
	profile := identity.BuyerProfileFrom(rec.Profile)
	return r.create(ctx, rec.IdentityID, rec.Email, rec.PasswordHash, domain.RoleBuyer, rec.Profile.FullName,
		func(tx *gorm.DB) (string, error) {
			return profile.ID, tx.Create(profile).Error
		})
}

func (r *IdentityRepo) CreateSeller(ctx context.Context, rec domain.NewSeller) (string, error) {
	if rec.Profile.CommercialRegistrationFile == "" || rec.Profile.TaxFile == "" {
		return "", domain.Validation("commercial registration and tax documents are required")
	}
	profile := identity.SellerProfileFrom(rec.Profile)
	return r.create(ctx, rec.IdentityID, rec.Email, rec.PasswordHash, domain.RoleSeller, rec.Profile.CompanyName,
		func(tx *gorm.DB) (string, error) {
			return profile.ID, tx.Create(profile).Error
		})
}

// create runs uniqueness check, profile insert and identity insert in one
// transaction. The unique index on email decides concurrent races.
func (r *IdentityRepo) create(ctx context.Context, id, email, hash string, role domain.Role, name string,
	insertProfile func(tx *gorm.DB) (string, error)) (string, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	email = NormalizeEmail(email)
	err := db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&identity.IdentityModel{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrDuplicateEmail
		}
		profileID, err := insertProfile(tx)
		if err != nil {
			return err
		}
		m := &identity.IdentityModel{
			ID:           id,
			Email:        email,
			PasswordHash: hash,
			Role:         string(role),
			DisplayName:  name,
		}
		if role == domain.RoleSeller {
			m.SellerProfileID = &profileID
		} else {
			m.BuyerProfileID = &profileID
		}
		return tx.Omit(clause.Associations).Create(m).Error
	})
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, domain.ErrDuplicateEmail), isDupKey(err):
		return "", domain.ErrDuplicateEmail
	case domain.KindOf(err) != 0:
		return "", err
	}
	return "", storageErr("create identity", err)
}

func (r *IdentityRepo) UpdatePresence(ctx context.Context, identityID string, role domain.Role, status domain.OnlineStatus) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	now := r.now()
	return storageErr("update presence", db.Transaction(func(tx *gorm.DB) error {
		var m identity.IdentityModel
		if err := tx.Select("id", "role", "buyer_profile_id", "seller_profile_id").
			First(&m, "id = ? AND role = ?", identityID, string(role)).Error; err != nil {
			return err
		}
		updates := map[string]any{"online_status": string(status)}
		if status == domain.StatusOnline {
			updates["last_login"] = now
			if err := tx.Model(&identity.IdentityModel{}).Where("id = ?", identityID).
				Update("updated_at", now).Error; err != nil {
				return err
			}
		}
		switch role {
		case domain.RoleBuyer:
			return tx.Model(&identity.BuyerProfileModel{}).Where("id = ?", m.BuyerProfileID).Updates(updates).Error
		case domain.RoleSeller:
			return tx.Model(&identity.SellerProfileModel{}).Where("id = ?", m.SellerProfileID).Updates(updates).Error
		}
		return nil
	}))
}

// SetAllOffline flips every online profile to offline; used by the shutdown hook.
func (r *IdentityRepo) SetAllOffline(ctx context.Context) (int64, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int64
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&identity.BuyerProfileModel{}, &identity.SellerProfileModel{}} {
			res := tx.Model(model).Where("online_status <> ?", string(domain.StatusOffline)).
				Update("online_status", string(domain.StatusOffline))
			if res.Error != nil {
				return res.Error
			}
			total += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("set all offline", err)
	}
	return total, nil
}

func (r *IdentityRepo) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findIdentity(ctx, "email = ?", NormalizeEmail(email))
}

func (r *IdentityRepo) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findIdentity(ctx, "id = ?", id)
}

func (r *IdentityRepo) findIdentity(ctx context.Context, query string, arg any) (*domain.Identity, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()
	var m identity.IdentityModel
	if err := db.First(&m, query, arg).Error; err != nil {
		return nil, storageErr("find identity", err)
	}
	return m.ToDomain(), nil
}

func (r *IdentityRepo) FindBuyerProfile(ctx context.Context, profileID string) (*domain.BuyerProfile, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()
	var m identity.BuyerProfileModel
	if err := db.First(&m, "id = ?", profileID).Error; err != nil {
		return nil, storageErr("find buyer profile", err)
	}
	return m.ToDomain(), nil
}

func (r *IdentityRepo) FindSellerProfile(ctx context.Context, profileID string) (*domain.SellerProfile, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()
	var m identity.SellerProfileModel
	if err := db.First(&m, "id = ?", profileID).Error; err != nil {
		return nil, storageErr("find seller profile", err)
	}
	return m.ToDomain(), nil
}

func (r *IdentityRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageErr("ping", err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return storageErr("ping", sqlDB.PingContext(ctx))
}

// storageErr classifies gorm errors. nil stays nil and missing rows become
// domain.ErrNotFound.
func storageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.Is(err, gorm.ErrInvalidDB):
		return domain.StorageRetryable("storage unavailable", errors.Join(errors.New(op), err))
	}
	return domain.Storage("storage failure", errors.Join(errors.New(op), err))
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
