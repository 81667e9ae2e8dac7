package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ecopanier/backend/internal/config"
	"github.com/ecopanier/backend/internal/models"
	"github.com/ecopanier/backend/internal/utils"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
	cache     *SettingsCache
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, cache *SettingsCache) *AuthService {
	return &AuthService{
		db:        db,
		jwtConfig: jwtCfg,
		cache:     cache,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token           string
	ExpireAt        time.Time
	User            *models.User
	PasswordExpired bool
}

// Login authenticates a user and returns a JWT token. Lockout thresholds
// and password expiry come from the platform settings cache.
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	settings := s.cache.Current()

	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid username or password")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, errors.New("account is disabled")
	}

	if settings.MaxLoginAttempts > 0 && user.FailedLogins >= settings.MaxLoginAttempts {
		LogWarning("auth", "login_locked", fmt.Sprintf("account %s locked after %d failed attempts", user.Username, user.FailedLogins), &user.ID, clientIP, userAgent, nil)
		return nil, fmt.Errorf("account locked after %d failed login attempts", settings.MaxLoginAttempts)
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		s.db.Model(&user).Update("failed_logins", gorm.Expr("failed_logins + 1"))
		return nil, errors.New("invalid username or password")
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, s.jwtConfig.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	user.FailedLogins = 0
	s.db.Save(&user)

	LogInfo("auth", "login", fmt.Sprintf("user %s logged in", user.Username), &user.ID, clientIP, userAgent, nil)

	return &LoginResult{
		Token:           token,
		ExpireAt:        now.Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
		User:            &user,
		PasswordExpired: s.passwordExpired(&user, settings),
	}, nil
}

// passwordExpired reports whether the user's password is older than the
// configured expiration. Users with no recorded password date are exempt.
func (s *AuthService) passwordExpired(user *models.User, settings *PlatformSettings) bool {
	if settings.PasswordExpirationDays <= 0 || user.PasswordSetAt == nil {
		return false
	}
	deadline := user.PasswordSetAt.AddDate(0, 0, settings.PasswordExpirationDays)
	return time.Now().After(deadline)
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists creates the default admin account on first boot
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)

	if count == 0 {
		hashedPassword, err := utils.HashPassword("admin")
		if err != nil {
			return err
		}

		now := time.Now()
		admin := models.User{
			Username:      "admin",
			Password:      hashedPassword,
			Nickname:      "Administrator",
			Role:          models.RoleAdmin,
			IsActive:      true,
			PasswordSetAt: &now,
		}

		return s.db.Create(&admin).Error
	}

	return nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return errors.New("user not found")
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return errors.New("incorrect old password")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	user.Password = hashedPassword
	user.PasswordSetAt = &now
	return s.db.Save(&user).Error
}
