package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/cache"
	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	minPasswordLength = 6
)

// AuthService 后台登录与会话
type AuthService struct {
	userRepo repository.UserRepository
	store    cache.Store
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService 创建认证服务，ttlHours<=0 时会话有效期 7 天
func NewAuthService(userRepo repository.UserRepository, store cache.Store, ttlHours int) *AuthService {
	if store == nil {
		store = cache.Null{}
	}
	ttl := defaultSessionTTL
	if ttlHours > 0 {
		ttl = time.Duration(ttlHours) * time.Hour
	}
	return &AuthService{userRepo: userRepo, store: store, ttl: ttl, now: time.Now}
}

// UserInfo 会话用户
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// LoginResult 登录结果
type LoginResult struct {
	SessionToken string   `json:"sessionToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	User         UserInfo `json:"user"`
}

func userInfoOf(user *models.User) UserInfo {
	return UserInfo{ID: user.ID, Username: user.Username, FullName: user.FullName, Role: user.Role}
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login 校验用户名密码并签发会话
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrLoginFieldsRequired
	}
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.FromContext(ctx).Warnw("login_password_mismatch", "username", username)
		return nil, ErrInvalidCredentials
	}

	token, err := randomHexToken(constants.SessionTokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &models.Session{
		ID:        token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if err := s.userRepo.CreateSession(session); err != nil {
		return nil, err
	}
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		logger.FromContext(ctx).Warnw("login_touch_failed", "user_id", user.ID, "error", err)
	}
	logger.FromContext(ctx).Infow("login_succeeded", "user_id", user.ID, "username", user.Username)
	return &LoginResult{
		SessionToken: token,
		ExpiresAt:    session.ExpiresAt,
		User:         userInfoOf(user),
	}, nil
}

// VerifySession 校验令牌，优先读取缓存快照
func (s *AuthService) VerifySession(ctx context.Context, token string) (*UserInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionInvalid
	}
	if state, hit, err := cache.GetSessionState(ctx, s.store, token); err == nil && hit {
		return &UserInfo{ID: state.UserID, Username: state.Username, FullName: state.FullName, Role: state.Role}, nil
	} else if err != nil {
		logger.FromContext(ctx).Warnw("session_cache_get_failed", "error", err)
	}

	session, err := s.userRepo.GetActiveSession(token, s.now().Unix())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionInvalid
	}
	info := userInfoOf(&session.User)
	if err := cache.SetSessionState(ctx, s.store, token, &cache.SessionState{
		UserID:    info.ID,
		Username:  info.Username,
		FullName:  info.FullName,
		Role:      info.Role,
		ExpiresAt: session.ExpiresAt,
	}); err != nil {
		logger.FromContext(ctx).Warnw("session_cache_set_failed", "error", err)
	}
	return &info, nil
}

// Logout 删除会话
func (s *AuthService) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ValidationError("Không tìm thấy session token")
	}
	if err := s.userRepo.DeleteSession(token); err != nil {
		return err
	}
	if err := cache.DelSessionState(ctx, s.store, token); err != nil {
		logger.FromContext(ctx).Warnw("session_cache_delete_failed", "error", err)
	}
	return nil
}

// ChangePassword 修改密码并注销该用户的其他会话
func (s *AuthService) ChangePassword(ctx context.Context, token string, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrPasswordFields
	}
	if len([]rune(newPassword)) < minPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return ErrSessionInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrCurrentPassword
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, hash); err != nil {
		return err
	}
	if err := s.userRepo.DeleteOtherSessions(user.ID, token); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("password_changed", "user_id", user.ID)
	return nil
}

// EnsureUser 用户不存在时创建，返回是否新建
func (s *AuthService) EnsureUser(ctx context.Context, username, password, fullName, role string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, ErrLoginFieldsRequired
	}
	existing, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         orDefault(role, constants.RoleAdmin),
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return false, err
	}
	logger.FromContext(ctx).Infow("user_created", "user_id", user.ID, "username", username, "role", user.Role)
	return true, nil
}

// PurgeExpiredSessions 清理过期会话
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.userRepo.DeleteExpiredSessions(s.now().Unix())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.FromContext(ctx).Infow("expired_sessions_purged", "removed", removed)
	}
	return removed, nil
}
