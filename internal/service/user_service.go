package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// UserService coordina registro, login y vinculación de identidad federada.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	return &UserService{
		logger: logger,
		users:  users,
	}
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrOAuthInvalid       = errors.New("oauth data invalid")
)

type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	displayName := strings.TrimSpace(input.DisplayName)
	password := strings.TrimSpace(input.Password)
	if displayName == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		DisplayName:  displayName,
		PasswordHash: string(hashBytes),
		AvatarURL:    avatarFromInitials(displayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// La restricción UNIQUE sobre email cierra la carrera check-then-create.
		if isUniqueViolation(err) {
			if s.logger != nil {
				s.logger.Warn("register lost unique email race", zap.String("email", emailAddr))
			}
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	// Cuentas solo federadas no tienen hash: el login con password siempre falla.
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

type GoogleProfile struct {
	Subject     string
	Email       string
	DisplayName string
	AvatarURL   string
}

// UpsertGoogleUser vincula el perfil federado por email: si el usuario existe
// refresca google_id y avatar, si no existe lo crea sin password.
func (s *UserService) UpsertGoogleUser(ctx context.Context, profile GoogleProfile) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	subject := strings.TrimSpace(profile.Subject)
	emailAddr := normalizeEmail(profile.Email)
	displayName := strings.TrimSpace(profile.DisplayName)
	avatarURL := strings.TrimSpace(profile.AvatarURL)

	if subject == "" || emailAddr == "" {
		return domain.User{}, ErrOAuthInvalid
	}

	existing, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		now := time.Now().UTC()
		if err := s.users.LinkGoogle(ctx, existing.ID, subject, avatarURL, now); err != nil {
			return domain.User{}, err
		}
		existing.GoogleID = subject
		if avatarURL != "" {
			existing.AvatarURL = avatarURL
		}
		existing.UpdatedAt = now
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	if displayName == "" {
		displayName = emailAddr
	}
	if avatarURL == "" {
		avatarURL = avatarFromInitials(displayName)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:          uuid.NewString(),
		Email:       emailAddr,
		DisplayName: displayName,
		GoogleID:    subject,
		AvatarURL:   avatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func avatarFromInitials(displayName string) string {
	seed := strings.ReplaceAll(displayName, " ", "+")
	return fmt.Sprintf("https://api.dicebear.com/7.x/initials/svg?seed=%s", seed)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
