package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/savage-rise/internal/config"
	"github.com/savage-rise/internal/constants"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key-for-user-auth-tests"
	cfg.JWT.ExpireHours = 1
	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	user, token, expiresAt, err := service.Register(" Ana@Example.COM ", "s3cret-pass", "Ana", "fr-FR")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if user.Locale != constants.LocaleFrFR {
		t.Fatalf("locale want fr-FR got %s", user.Locale)
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatalf("password must be stored hashed")
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected token with future expiry, got %q / %v", token, expiresAt)
	}

	claims, err := service.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email || claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	logged, _, _, err := service.Login("ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.LastLoginAt == nil {
		t.Fatalf("last_login_at should be set after login")
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := service.Register("not-an-email", "s3cret-pass", "", ""); err == nil {
		t.Fatalf("invalid email should be rejected")
	}
	if _, _, _, err := service.Register("ana@example.com", "short", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("short password want ErrInvalidCredentials, got: %v", err)
	}

	if _, _, _, err := service.Register("ana@example.com", "s3cret-pass", "", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, _, err := service.Register("ANA@example.com", "s3cret-pass", "", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email want ErrEmailTaken, got: %v", err)
	}

	// 不支持的语言回退到默认语言
	user, _, _, err := service.Register("bob@example.com", "s3cret-pass", "Bob", "de-DE")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Locale != constants.LocaleEnUS {
		t.Fatalf("unsupported locale should fall back to en-US, got %s", user.Locale)
	}
}

func TestLoginFailures(t *testing.T) {
	service, db := setupUserAuthServiceTest(t)

	if _, _, _, err := service.Login("ghost@example.com", "whatever-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials, got: %v", err)
	}

	user, _, _, err := service.Register("ana@example.com", "s3cret-pass", "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, _, err := service.Login("ana@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials, got: %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := service.Login("ana@example.com", "s3cret-pass"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled, got: %v", err)
	}
}

func TestParseJWTRejectsTamperedToken(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	_, token, _, err := service.Register("ana@example.com", "s3cret-pass", "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := service.ParseJWT(token + "x"); err == nil {
		t.Fatalf("tampered token should be rejected")
	}
	if _, err := service.ParseJWT(""); err == nil {
		t.Fatalf("empty token should be rejected")
	}
}
