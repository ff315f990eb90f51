// Package identity implements credential verification and first-use account
// creation against the accounts store.
//
// The service is handed its store at construction time so handlers and tests
// can swap implementations without touching globals.
package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/easywish/launchpad/internal/domain/models"
	"github.com/easywish/launchpad/internal/app/system/authutil"
	"github.com/easywish/launchpad/internal/app/system/normalize"
)

var (
	// ErrNoAccount means no account exists for the credential identifier.
	ErrNoAccount = errors.New("no account for credential")
	// ErrWrongPassword means the account exists but the password did not match.
	ErrWrongPassword = errors.New("wrong password")
	// ErrAccountDisabled means the account exists but is not active.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrAccountExists means creation raced with another request that won.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentialID means the credential identifier is malformed.
	ErrInvalidCredentialID = errors.New("invalid credential identifier")
	// ErrWeakPassword means the password failed validation for a new account.
	ErrWeakPassword = errors.New("password does not meet requirements")
)

// AccountStore is the subset of the accounts store the service needs.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Ping(ctx context.Context) error
}

// Service verifies credentials and creates accounts.
type Service struct {
	accounts AccountStore
	logger   *zap.Logger
}

// New constructs a Service. logger may be nil.
func New(accounts AccountStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{accounts: accounts, logger: logger}
}

// VerifyCredential looks up the account for credID and checks the password.
// Returns ErrNoAccount, ErrWrongPassword, or ErrAccountDisabled on the
// corresponding failures. For ErrWrongPassword and ErrAccountDisabled the
// matched account is returned alongside the error so callers can audit it.
func (s *Service) VerifyCredential(ctx context.Context, credID, password string) (*models.User, error) {
	credID = normalize.Email(credID)
	if credID == "" {
		return nil, ErrInvalidCredentialID
	}

	u, err := s.accounts.GetByEmail(ctx, credID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNoAccount
	}
	if u.Status != "" && u.Status != models.StatusActive {
		return u, ErrAccountDisabled
	}
	if u.PasswordHash == nil || !authutil.CheckPassword(password, *u.PasswordHash) {
		return u, ErrWrongPassword
	}
	return u, nil
}

// CreateAccount registers a new account for credID. The store's unique index
// on the folded email makes the insert the arbiter: if another request
// created the account first, ErrAccountExists is returned and the caller
// should fall back to treating it as a failed sign-in.
func (s *Service) CreateAccount(ctx context.Context, credID, password string) (*models.User, error) {
	credID = normalize.Email(credID)
	if credID == "" {
		return nil, ErrInvalidCredentialID
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return nil, ErrWeakPassword
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:        credID,
		PasswordHash: &hash,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}
	created, err := s.accounts.Create(ctx, u)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	s.logger.Info("account created", zap.String("user_id", created.ID.Hex()))
	return created, nil
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.accounts.Ping(ctx)
}
