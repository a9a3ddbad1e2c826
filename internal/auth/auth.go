package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"student_connect/internal/lib/jwt"
	sl "student_connect/internal/lib/logger"
	"student_connect/internal/lib/verification"
	"student_connect/internal/models"
	"student_connect/internal/storage"
)

var (
	ErrAccountExists      = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
)

type Auth struct {
	log           *slog.Logger
	accSaver      AccountSaver
	accProvider   AccountProvider
	accUpdater    AccountUpdater
	mail          MailSender
	sessionSecret string
	sessionTTL    time.Duration
	codeTTL       time.Duration
}

type AccountSaver interface {
	SaveAccount(ctx context.Context, acc models.Account) error
}

type AccountProvider interface {
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	AccountByID(ctx context.Context, id string) (models.Account, error)
}

type AccountUpdater interface {
	SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id string) (bool, error)
}

type MailSender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

func New(
	log *slog.Logger,
	accSaver AccountSaver,
	accProvider AccountProvider,
	accUpdater AccountUpdater,
	mail MailSender,
	sessionSecret string,
	sessionTTL, codeTTL time.Duration,
) *Auth {
	return &Auth{
		log:           log,
		accSaver:      accSaver,
		accProvider:   accProvider,
		accUpdater:    accUpdater,
		mail:          mail,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
		codeTTL:       codeTTL,
	}
}

type RegisterResult struct {
	UserID    string
	Email     string
	FullName  string
	Verified  bool
	EmailSent bool
}

// Register creates an unverified account with a fresh code and attempts to
// deliver it. When delivery fails the account is marked verified right away
// instead of being stranded behind a code it can never receive; this is the
// intentional fallback-verify policy, not an oversight.
func (a *Auth) Register(
	ctx context.Context,
	fullName, email, password, phone string,
) (RegisterResult, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	email = NormalizeEmail(email)

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	code, err := verification.NewCode(a.codeTTL)
	if err != nil {
		log.Error("failed to issue verification code", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	acc := models.Account{
		ID:               uuid.NewString(),
		Email:            email,
		FullName:         fullName,
		Phone:            phone,
		PassHash:         passHash,
		IsVerified:       false,
		VerificationCode: &code.Value,
		CodeExpiresAt:    &code.ExpiresAt,
		Interests:        []string{},
		SocialLinks:      map[string]string{},
	}

	if err := a.accSaver.SaveAccount(ctx, acc); err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			log.Warn("email already registered")
			return RegisterResult{}, fmt.Errorf("%s: %w", op, ErrAccountExists)
		}

		log.Error("failed to save account", sl.Err(err))
		return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := RegisterResult{
		UserID:   acc.ID,
		Email:    acc.Email,
		FullName: acc.FullName,
	}

	text, html := verification.RenderEmail(fullName, code.Value)
	if err := a.mail.Send(ctx, email, "Verify Your Email - Student Connect", text, html); err != nil {
		log.Warn("verification email delivery failed, auto-verifying account", sl.Err(err))

		if _, err := a.accUpdater.MarkVerified(ctx, acc.ID); err != nil {
			log.Error("failed to auto-verify account", sl.Err(err))
			return RegisterResult{}, fmt.Errorf("%s: %w", op, err)
		}

		res.Verified = true
		return res, nil
	}

	res.EmailSent = true

	log.Info("account registered", slog.String("id", acc.ID))

	return res, nil
}

// VerifyEmail checks the submitted code against the most recently issued one
// and promotes the account to verified, minting a session token.
func (a *Auth) VerifyEmail(
	ctx context.Context,
	email, code string,
) (string, models.PublicAccount, error) {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		log.Error("failed to get account", sl.Err(err))
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}

	if acc.IsVerified {
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrAlreadyVerified)
	}

	if !acc.HasPendingCode() || *acc.VerificationCode != code {
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrInvalidCode)
	}

	if time.Now().After(*acc.CodeExpiresAt) {
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrCodeExpired)
	}

	won, err := a.accUpdater.MarkVerified(ctx, acc.ID)
	if err != nil {
		log.Error("failed to mark account verified", sl.Err(err))
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}
	if !won {
		// Lost a race against a concurrent verify or the fallback policy.
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrAlreadyVerified)
	}

	acc.IsVerified = true
	acc.VerificationCode = nil
	acc.CodeExpiresAt = nil

	token, err := jwt.NewToken(a.sessionSecret, a.sessionTTL, acc.ID, acc.Email)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("id", acc.ID))

	return token, acc.Public(), nil
}

// ResendCode issues a fresh code, invalidating the previous one, and attempts
// delivery. A delivery failure auto-verifies the account under the same
// fallback policy as Register. The returned flag reports whether the email
// went out.
func (a *Auth) ResendCode(ctx context.Context, email string) (bool, error) {
	const op = "auth.ResendCode"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		log.Error("failed to get account", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if acc.IsVerified {
		return false, fmt.Errorf("%s: %w", op, ErrAlreadyVerified)
	}

	code, err := verification.NewCode(a.codeTTL)
	if err != nil {
		log.Error("failed to issue verification code", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.accUpdater.SetVerificationCode(ctx, acc.ID, code.Value, code.ExpiresAt); err != nil {
		log.Error("failed to store verification code", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	text, html := verification.RenderEmail(acc.FullName, code.Value)
	if err := a.mail.Send(ctx, acc.Email, "New Verification Code - Student Connect", text, html); err != nil {
		log.Warn("verification email delivery failed, auto-verifying account", sl.Err(err))

		if _, err := a.accUpdater.MarkVerified(ctx, acc.ID); err != nil {
			log.Error("failed to auto-verify account", sl.Err(err))
			return false, fmt.Errorf("%s: %w", op, err)
		}

		return false, nil
	}

	log.Info("verification code resent", slog.String("id", acc.ID))

	return true, nil
}

// Login checks credentials and mints a session token. Unknown email and wrong
// password fail identically so the endpoint cannot be used to enumerate
// accounts.
func (a *Auth) Login(
	ctx context.Context,
	email, password string,
) (string, models.PublicAccount, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Info("login with unknown email")
			return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to get account", sl.Err(err))
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}

	if !acc.IsVerified {
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrNotVerified)
	}

	if err := bcrypt.CompareHashAndPassword(acc.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials")
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := jwt.NewToken(a.sessionSecret, a.sessionTTL, acc.ID, acc.Email)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return "", models.PublicAccount{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("id", acc.ID))

	return token, acc.Public(), nil
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
