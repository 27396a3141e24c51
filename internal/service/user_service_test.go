package service

import (
	"context"
	"testing"
	"time"

	"fresh-mart/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

func newUserServiceFixture(t *testing.T) (UserService, *mockUserRepository, *mockRefreshTokenRepository) {
	t.Helper()
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	return NewUserService(users, tokens, testJWTSecret), users, tokens
}

func TestRegister(t *testing.T) {
	svc, _, _ := newUserServiceFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "shopper", "Shopper@Example.com", "secret-password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Email != "shopper@example.com" {
		t.Errorf("expected lowercased email, got %s", user.Email)
	}
	if user.IsAdmin {
		t.Error("new accounts must not be admins")
	}
	if !user.IsActive {
		t.Error("new accounts must be active")
	}
	if user.PasswordHash == "secret-password" {
		t.Error("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")); err != nil {
		t.Errorf("stored hash does not verify the password: %v", err)
	}
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	svc, _, _ := newUserServiceFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Register(ctx, "other", "shopper@example.com", "secret-password"); err != repository.ErrUserAlreadyExists {
		t.Errorf("expected ErrUserAlreadyExists for duplicate email, got %v", err)
	}
	if _, err := svc.Register(ctx, "shopper", "other@example.com", "secret-password"); err != repository.ErrUserAlreadyExists {
		t.Errorf("expected ErrUserAlreadyExists for duplicate username, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newUserServiceFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// By username
	access, refresh, user, err := svc.Login(ctx, "shopper", "secret-password")
	if err != nil {
		t.Fatalf("Login by username failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Error("expected both tokens")
	}
	if user.ID != registered.ID {
		t.Error("expected the registered user back")
	}
	if user.LastLogin == nil {
		t.Error("expected last login to be stamped")
	}

	// By email, case-insensitive
	if _, _, _, err := svc.Login(ctx, "Shopper@Example.com", "secret-password"); err != nil {
		t.Errorf("Login by email failed: %v", err)
	}

	// Wrong password and unknown account look identical
	if _, _, _, err := svc.Login(ctx, "shopper", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "nobody", "secret-password"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, users, _ := newUserServiceFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := users.SetActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	if _, _, _, err := svc.Login(ctx, "shopper", "secret-password"); err != ErrAccountDisabled {
		t.Errorf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	svc, _, _ := newUserServiceFixture(t)
	ctx := context.Background()

	user, _ := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password")
	access, _, _, err := svc.Login(ctx, "shopper", "secret-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := svc.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected user ID %s in claims, got %s", user.ID, claims.UserID)
	}
	if claims.IsAdmin {
		t.Error("customer token must not carry the admin claim")
	}

	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Error("expected malformed token to be rejected")
	}

	other := NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), "different-secret")
	if _, err := other.ValidateToken(access); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestRefreshToken(t *testing.T) {
	svc, users, tokens := newUserServiceFixture(t)
	ctx := context.Background()

	user, _ := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password")
	_, refresh, _, err := svc.Login(ctx, "shopper", "secret-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	access, err := svc.RefreshToken(ctx, refresh)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	claims, err := svc.ValidateToken(access)
	if err != nil || claims.UserID != user.ID {
		t.Errorf("refreshed token does not validate for the user: %v", err)
	}

	// Unknown token
	if _, err := svc.RefreshToken(ctx, uuid.NewString()); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for unknown token, got %v", err)
	}

	// Expired token
	stored, err := tokens.FindByToken(ctx, refresh)
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	stored.ExpiresAt = time.Now().Add(-time.Minute)
	if _, err := svc.RefreshToken(ctx, refresh); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	stored.ExpiresAt = time.Now().Add(time.Hour)

	// Disabled account can't refresh
	if err := users.SetActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if _, err := svc.RefreshToken(ctx, refresh); err != ErrAccountDisabled {
		t.Errorf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _, _ := newUserServiceFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, refresh, _, err := svc.Login(ctx, "shopper", "secret-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(ctx, refresh); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.RefreshToken(ctx, refresh); err != ErrInvalidToken {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}

	// Logging out twice is fine
	if err := svc.Logout(ctx, refresh); err != nil {
		t.Errorf("expected second logout to be a no-op, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newUserServiceFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		Phone:   "98765 43210",
		Address: "  42 Market Street  ",
		Pincode: "560001",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Phone != "9876543210" {
		t.Errorf("expected normalized phone, got %s", updated.Phone)
	}
	if updated.Address != "42 Market Street" {
		t.Errorf("expected trimmed address, got %q", updated.Address)
	}

	if _, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Phone: "12345"}); err != ErrInvalidPhone {
		t.Errorf("expected ErrInvalidPhone, got %v", err)
	}

	// Empty phone clears the field
	updated, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Address: "42 Market Street"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Phone != "" {
		t.Errorf("expected phone cleared, got %s", updated.Phone)
	}
}

func TestSetCustomerActive_EndsSessions(t *testing.T) {
	svc, _, tokens := newUserServiceFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "shopper", "shopper@example.com", "secret-password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, refresh, _, err := svc.Login(ctx, "shopper", "secret-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.SetCustomerActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetCustomerActive failed: %v", err)
	}

	// The outstanding refresh token is revoked, not just the account flag.
	if _, err := tokens.FindByToken(ctx, refresh); err != repository.ErrRefreshTokenRevoked {
		t.Errorf("expected revoked refresh token, got %v", err)
	}
	if _, err := svc.RefreshToken(ctx, refresh); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken after deactivation, got %v", err)
	}

	// Re-enabling the account does not resurrect old sessions.
	if err := svc.SetCustomerActive(ctx, user.ID, true); err != nil {
		t.Fatalf("SetCustomerActive failed: %v", err)
	}
	if _, err := svc.RefreshToken(ctx, refresh); err != ErrInvalidToken {
		t.Errorf("expected old session to stay dead, got %v", err)
	}
}
