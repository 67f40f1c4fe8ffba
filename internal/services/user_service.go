package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventhub-app/server/internal/helpers"
	"github.com/eventhub-app/server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService covers registration, login, profile and password management,
// and the admin user-management operations.
type UserService struct {
	userRepo      models.UserRepo
	mailer        Mailer
	jwtSecret     string
	tokenTTL      time.Duration
	clientBaseURL string
}

func NewUserService(userRepo models.UserRepo, mailer Mailer, jwtSecret string, tokenTTL time.Duration, clientBaseURL string) *UserService {
	return &UserService{
		userRepo:      userRepo,
		mailer:        mailer,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		clientBaseURL: clientBaseURL,
	}
}

func (us *UserService) issueToken(user *models.User) (string, error) {
	return helpers.GenerateToken(us.jwtSecret, us.tokenTTL, user.ID.Hex(), user.Username, user.Role)
}

func (us *UserService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return nil, "", ErrAllFieldsRequired
	}
	if len(password) < helpers.MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	existing, err := us.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.Email == email {
			return nil, "", ErrEmailTaken
		}
		return nil, "", ErrUsernameTaken
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  hash,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := models.Validate.Struct(user); err != nil {
		return nil, "", validation("Dati utente non validi")
	}

	created, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := us.issueToken(created)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return created.Sanitized(), token, nil
}

func (us *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ErrEmailPasswordRequired
	}

	user, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}
	if !helpers.CheckPassword(user.Password, password) {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to update last login: %w", err)
	}

	token, err := us.issueToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user.Sanitized(), token, nil
}

// GetUserByID returns (nil, nil) when the user does not exist; the auth
// middleware turns that into its own rejection.
func (us *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return us.userRepo.GetUserByID(ctx, id)
}

func (us *UserService) GetProfile(ctx context.Context, principal *models.User) (*models.User, error) {
	user, err := us.userRepo.GetUserByID(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user.Sanitized(), nil
}

func (us *UserService) UpdateProfile(ctx context.Context, principal *models.User, username, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" && email == "" {
		return nil, ErrNoFieldsToUpdate
	}
	if email != "" && !helpers.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	conflicting, err := us.userRepo.FindConflicting(ctx, principal.ID, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check uniqueness: %w", err)
	}
	if conflicting != nil {
		if username != "" && conflicting.Username == username {
			return nil, ErrUsernameInUse
		}
		return nil, ErrEmailInUse
	}

	user, err := us.userRepo.GetUserByID(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user.Sanitized(), nil
}

func (us *UserService) ChangePassword(ctx context.Context, principal *models.User, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrPasswordsRequired
	}
	if len(newPassword) < helpers.MinPasswordLength {
		return ErrNewPasswordTooShort
	}

	// reload: the principal on the request context has its hash blanked
	user, err := us.userRepo.GetUserByID(ctx, principal.ID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !helpers.CheckPassword(user.Password, currentPassword) {
		return ErrCurrentPasswordWrong
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// ForgotPassword issues a reset token and mails it. It succeeds silently for
// unknown addresses so the endpoint cannot be used to probe registrations.
func (us *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil
	}

	token, err := helpers.GenerateResetToken(us.jwtSecret, user.ID.Hex())
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := time.Now().Add(time.Hour)
	user.ResetPasswordToken = token
	user.ResetPasswordExpires = &expires
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(us.clientBaseURL, "/"), token)
	if err := us.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func (us *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < helpers.MinPasswordLength {
		return ErrNewPasswordTooShort
	}

	user, err := us.userRepo.GetUserByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if user == nil {
		return ErrResetTokenInvalid
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// --- admin operations ---

func (us *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := us.userRepo.ListUsers(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ToggleUserBlock flips the active flag. Admins cannot block themselves or
// other admins.
func (us *UserService) ToggleUserBlock(ctx context.Context, principal *models.User, userID primitive.ObjectID) (*models.User, error) {
	if userID == principal.ID {
		return nil, ErrCannotBlockSelf
	}

	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsAdmin() {
		return nil, ErrCannotBlockAdmin
	}

	user.IsActive = !user.IsActive
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user.Sanitized(), nil
}

func (us *UserService) PromoteToAdmin(ctx context.Context, principal *models.User, userID primitive.ObjectID) (*models.User, error) {
	if userID == principal.ID {
		return nil, ErrAlreadyAdminSelf
	}

	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsAdmin() {
		return nil, ErrAlreadyAdmin
	}

	user.Role = models.RoleAdmin
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user.Sanitized(), nil
}

func (us *UserService) DemoteToUser(ctx context.Context, principal *models.User, userID primitive.ObjectID) (*models.User, error) {
	if userID == principal.ID {
		return nil, ErrCannotDemoteSelf
	}

	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role == models.RoleUser {
		return nil, ErrAlreadyRegularUser
	}

	user.Role = models.RoleUser
	if err := us.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user.Sanitized(), nil
}

func (us *UserService) GetAdminStats(ctx context.Context) (*models.AdminStats, error) {
	stats, err := us.userRepo.GetAdminStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}
	return stats, nil
}
