package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// AccountStore persists accounts and their refresh-token fingerprints.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	Update(ctx context.Context, account models.Account) error

	// ReplaceFingerprint unconditionally swaps in a new fingerprint,
	// invalidating whatever refresh token was live before.
	ReplaceFingerprint(ctx context.Context, accountID, fingerprint string) error
	// RotateFingerprint replaces old with new only if old is still the
	// stored value; repositories.ErrNotFound signals a lost rotation race.
	RotateFingerprint(ctx context.Context, accountID, old, next string) error
	// ClearFingerprint empties the stored fingerprint.
	ClearFingerprint(ctx context.Context, accountID string) error
}

// MediaStore uploads a local file and returns its durable location.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (models.MediaAsset, error)
}

// dummyHash is compared against when a login identifier does not resolve, so
// lookup misses cost the same as password mismatches.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("vidtube-timing-pad"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// Manager owns the authentication-token state machine per account: credential
// verification, paired token issuance, rotation on refresh, and revocation on
// logout. Session validity is fingerprint-based rotation, not a revocation
// list; at most one refresh token is live per account.
type Manager struct {
	accounts AccountStore
	media    MediaStore
	tokens   *TokenService
	now      func() time.Time
}

// NewManager constructs a Manager over the given collaborators.
func NewManager(accounts AccountStore, media MediaStore, tokens *TokenService) *Manager {
	if accounts == nil || tokens == nil {
		panic("auth: account store and token service must not be nil")
	}
	return &Manager{
		accounts: accounts,
		media:    media,
		tokens:   tokens,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterParams carries everything needed to create an account.
type RegisterParams struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	AvatarPath string
	CoverPath  string
}

// Register creates an account, uploading the mandatory avatar (and optional
// cover) through the media store, and signs the caller in. Duplicate username
// or email surfaces as a Conflict through the store's unique indexes; there is
// no check-then-insert window.
func (m *Manager) Register(ctx context.Context, params RegisterParams) (models.PublicAccount, models.TokenPair, error) {
	params.Username = strings.TrimSpace(strings.ToLower(params.Username))
	params.Email = strings.TrimSpace(strings.ToLower(params.Email))

	if params.Username == "" || params.Email == "" || params.Password == "" {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Validationf("username, email, and password are required")
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Validationf("invalid email address")
	}
	if len(params.Password) < 8 {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Validationf("password must be at least 8 characters")
	}
	if params.AvatarPath == "" {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Validationf("avatar image is required")
	}
	if m.media == nil {
		return models.PublicAccount{}, models.TokenPair{}, errors.New("auth: media store unavailable")
	}

	avatar, err := m.media.Upload(ctx, params.AvatarPath)
	if err != nil {
		return models.PublicAccount{}, models.TokenPair{}, err
	}

	var coverURL string
	if params.CoverPath != "" {
		cover, err := m.media.Upload(ctx, params.CoverPath)
		if err != nil {
			return models.PublicAccount{}, models.TokenPair{}, err
		}
		coverURL = cover.URL
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.PublicAccount{}, models.TokenPair{}, err
	}

	now := m.now()
	account := models.Account{
		ID:           uuid.NewString(),
		Username:     params.Username,
		Email:        params.Email,
		FullName:     strings.TrimSpace(params.FullName),
		AvatarURL:    avatar.URL,
		CoverURL:     coverURL,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.PublicAccount{}, models.TokenPair{}, apperr.Conflictf("username or email already registered")
		}
		return models.PublicAccount{}, models.TokenPair{}, err
	}

	pair, err := m.issue(ctx, account.ID)
	if err != nil {
		return models.PublicAccount{}, models.TokenPair{}, err
	}
	return account.Public(), pair, nil
}

// LoginParams identifies an account by exactly one of username or email.
type LoginParams struct {
	Username string
	Email    string
	Password string
}

// Login verifies credentials and issues a fresh token pair, replacing any
// previously stored fingerprint (one live refresh token per account).
func (m *Manager) Login(ctx context.Context, params LoginParams) (models.PublicAccount, models.TokenPair, error) {
	params.Username = strings.TrimSpace(strings.ToLower(params.Username))
	params.Email = strings.TrimSpace(strings.ToLower(params.Email))

	if (params.Username == "") == (params.Email == "") {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Validationf("exactly one of username or email is required")
	}
	if params.Password == "" {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Validationf("password is required")
	}

	var (
		account models.Account
		err     error
	)
	if params.Username != "" {
		account, err = m.accounts.FindByUsername(ctx, params.Username)
	} else {
		account, err = m.accounts.FindByEmail(ctx, params.Email)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Burn a compare so the miss is indistinguishable from a
			// wrong password.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(params.Password))
			return models.PublicAccount{}, models.TokenPair{}, apperr.Authenticationf("invalid credentials")
		}
		return models.PublicAccount{}, models.TokenPair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(params.Password)) != nil {
		return models.PublicAccount{}, models.TokenPair{}, apperr.Authenticationf("invalid credentials")
	}

	pair, err := m.issue(ctx, account.ID)
	if err != nil {
		return models.PublicAccount{}, models.TokenPair{}, err
	}
	return account.Public(), pair, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored
// fingerprint. A token whose fingerprint no longer matches the stored value
// has been rotated past, replayed, or revoked; all three fail identically.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	accountID, presented, err := m.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}

	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, apperr.Authenticationf("refresh token expired or reused")
		}
		return models.TokenPair{}, err
	}

	if account.RefreshFingerprint == "" ||
		subtle.ConstantTimeCompare([]byte(account.RefreshFingerprint), []byte(presented)) != 1 {
		return models.TokenPair{}, apperr.Authenticationf("refresh token expired or reused")
	}

	pair, fingerprint, err := m.tokens.SignPair(accountID)
	if err != nil {
		return models.TokenPair{}, err
	}

	// Compare-and-swap: of N concurrent refreshes with the same token,
	// exactly one advances the fingerprint.
	if err := m.accounts.RotateFingerprint(ctx, accountID, presented, fingerprint); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, apperr.Authenticationf("refresh token expired or reused")
		}
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout clears the stored fingerprint, invalidating any outstanding refresh
// token. Logging out twice is not an error. An already-issued access token
// stays usable until it expires; that window is the accepted trade-off of
// stateless access tokens.
func (m *Manager) Logout(ctx context.Context, accountID string) error {
	if err := m.accounts.ClearFingerprint(ctx, accountID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFoundf("account not found")
		}
		return err
	}
	return nil
}

// VerifyAccess is a pure signature and expiry check; it never touches the
// store and is safe to run on every request.
func (m *Manager) VerifyAccess(accessToken string) (string, error) {
	return m.tokens.VerifyAccess(accessToken)
}

// CurrentUser returns the sanitized account for the given id.
func (m *Manager) CurrentUser(ctx context.Context, accountID string) (models.PublicAccount, error) {
	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicAccount{}, apperr.NotFoundf("account not found")
		}
		return models.PublicAccount{}, err
	}
	return account.Public(), nil
}

// ChangePassword verifies the current password before storing a new hash.
func (m *Manager) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperr.Validationf("password must be at least 8 characters")
	}

	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFoundf("account not found")
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)) != nil {
		return apperr.Authenticationf("invalid current password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	account.PasswordHash = string(hashed)
	account.UpdatedAt = m.now()
	return m.accounts.Update(ctx, account)
}

// UpdateProfileParams carries optional profile mutations; at least one field
// must be set.
type UpdateProfileParams struct {
	FullName string
	Email    string
}

// UpdateProfile updates the account's full name and/or email.
func (m *Manager) UpdateProfile(ctx context.Context, accountID string, params UpdateProfileParams) (models.PublicAccount, error) {
	params.FullName = strings.TrimSpace(params.FullName)
	params.Email = strings.TrimSpace(strings.ToLower(params.Email))

	if params.FullName == "" && params.Email == "" {
		return models.PublicAccount{}, apperr.Validationf("at least one field is required")
	}
	if params.Email != "" {
		if _, err := mail.ParseAddress(params.Email); err != nil {
			return models.PublicAccount{}, apperr.Validationf("invalid email address")
		}
	}

	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicAccount{}, apperr.NotFoundf("account not found")
		}
		return models.PublicAccount{}, err
	}

	if params.FullName != "" {
		account.FullName = params.FullName
	}
	if params.Email != "" {
		account.Email = params.Email
	}
	account.UpdatedAt = m.now()

	if err := m.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.PublicAccount{}, apperr.Conflictf("email already registered")
		}
		return models.PublicAccount{}, err
	}
	return account.Public(), nil
}

func (m *Manager) issue(ctx context.Context, accountID string) (models.TokenPair, error) {
	pair, fingerprint, err := m.tokens.SignPair(accountID)
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := m.accounts.ReplaceFingerprint(ctx, accountID, fingerprint); err != nil {
		return models.TokenPair{}, err
	}
	return pair, nil
}
