package services

import (
	"errors"
	"strings"
	"time"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/internal/utils"
	"gorm.io/gorm"
)

// RequestInfo carries the caller's provenance into auth operations. It is
// filled by the handler layer and passed by value.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// TokenPair is the result of a login or rotation: a short-lived access
// token plus the raw refresh secret. The secret exists in memory only here
// and on the wire; it is never persisted.
type TokenPair struct {
	AccessToken      string
	RefreshSecret    string
	RefreshExpiresAt time.Time
	User             *models.User
}

type AuthService struct {
	db         *gorm.DB
	jwtCfg     *config.JWTConfig
	refreshCfg *config.RefreshConfig
	audit      *AuditService
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, refreshCfg *config.RefreshConfig) *AuthService {
	return &AuthService{
		db:         db,
		jwtCfg:     jwtCfg,
		refreshCfg: refreshCfg,
		audit:      NewAuditService(db),
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password"`
	ReturnRefreshToken bool   `json:"returnRefreshToken"`
}

// Register creates a password account.
func (s *AuthService) Register(req *RegisterRequest, info RequestInfo) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: email, PasswordHash: &hash}
	if err := s.db.Create(&user).Error; err != nil {
		// Unique index on email closes the check-then-create window.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Action:    "auth.register",
		UserID:    &user.ID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Meta:      map[string]interface{}{"email": user.Email},
	})

	return &user, nil
}

// Login authenticates an identity and issues a fresh token pair.
//
// Accounts without a password digest are passwordless dev accounts; they
// (and logins for unknown emails) only succeed while dev login is enabled.
func (s *AuthService) Login(req *LoginRequest, info RequestInfo) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if !s.refreshCfg.AllowDevLogin {
			return nil, ErrInvalidCredentials
		}
		user = models.User{Email: email}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return s.loginSucceeded(&user, "dev", info)
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash != nil {
		if req.Password == "" {
			return nil, ErrPasswordRequired
		}
		if !utils.CheckPassword(req.Password, *user.PasswordHash) {
			return nil, ErrInvalidCredentials
		}
		return s.loginSucceeded(&user, "password", info)
	}

	if !s.refreshCfg.AllowDevLogin {
		return nil, ErrInvalidCredentials
	}
	return s.loginSucceeded(&user, "dev", info)
}

func (s *AuthService) loginSucceeded(user *models.User, method string, info RequestInfo) (*TokenPair, error) {
	pair, err := s.issueTokens(user, info)
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Action:    "auth.login",
		UserID:    &user.ID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Meta:      map[string]interface{}{"method": method, "email": user.Email},
	})

	return pair, nil
}

// issueTokens mints an access token and a refresh record for an
// authenticated identity. The raw refresh secret is returned exactly once.
func (s *AuthService) issueTokens(user *models.User, info RequestInfo) (*TokenPair, error) {
	accessToken, err := utils.GenerateToken(user.ID, user.Email, s.jwtCfg.ExpireMinutes)
	if err != nil {
		return nil, err
	}

	secret, digest, err := utils.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := models.RefreshToken{
		UserID:            user.ID,
		TokenHash:         digest,
		ExpiresAt:         now.Add(time.Duration(s.refreshCfg.TTLDays) * 24 * time.Hour),
		CreatedIP:         info.IP,
		CreatedUserAgent:  info.UserAgent,
		LastUsedAt:        &now,
		LastUsedIP:        info.IP,
		LastUsedUserAgent: info.UserAgent,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshSecret:    secret,
		RefreshExpiresAt: record.ExpiresAt,
		User:             user,
	}, nil
}

// Logout revokes the presented refresh secret if it maps to a live record.
// Unknown or already-revoked secrets are ignored, so logout is idempotent;
// a store failure is surfaced rather than reported as a successful sign-out.
// Returns the owning user id when known, for auditing.
func (s *AuthService) Logout(presentedSecret string, info RequestInfo) (*string, error) {
	var userID *string

	if presentedSecret != "" {
		digest := utils.HashRefreshSecret(presentedSecret)

		var record models.RefreshToken
		err := s.db.Where("token_hash = ?", digest).First(&record).Error
		switch {
		case err == nil:
			userID = &record.UserID
			if record.RevokedAt == nil {
				res := s.db.Model(&models.RefreshToken{}).
					Where("id = ? AND revoked_at IS NULL", record.ID).
					Update("revoked_at", time.Now())
				if res.Error != nil {
					return nil, res.Error
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Nothing to revoke.
		default:
			return nil, err
		}
	}

	s.audit.Record(AuditEvent{
		Action:    "auth.logout",
		UserID:    userID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
	})

	return userID, nil
}

// GetUserByID retrieves a user by ID.
func (s *AuthService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
