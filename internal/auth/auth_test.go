package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tripledger/internal/models"
)

// memoryUserStore is a minimal in-memory UserStorage for tests.
type memoryUserStore struct {
	byEmail map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byEmail: make(map[string]*models.User)}
}

func (s *memoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.byEmail[user.Email] = user
	return nil
}

func (s *memoryUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.byEmail[email], nil
}

func (s *memoryUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	authn := NewPasswordAuthenticator(newMemoryUserStore())

	user, err := authn.Register(ctx, "alice@example.com", "Alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.ID == "" {
		t.Error("Register() returned user without ID")
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Error("Register() stored the password in plain text")
	}

	got, err := authn.Authenticate(ctx, "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Authenticate() user ID = %q, want %q", got.ID, user.ID)
	}

	if _, err := authn.Authenticate(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() with wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := authn.Authenticate(ctx, "nobody@example.com", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() with unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejectsWeakPasswordAndDuplicates(t *testing.T) {
	ctx := context.Background()
	authn := NewPasswordAuthenticator(newMemoryUserStore())

	if _, err := authn.Register(ctx, "alice@example.com", "Alice", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Register() with short password error = %v, want ErrWeakPassword", err)
	}

	if _, err := authn.Register(ctx, "alice@example.com", "Alice", "hunter2hunter2"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, err := authn.Register(ctx, "alice@example.com", "Alice Two", "hunter2hunter2"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Register() with duplicate email error = %v, want ErrEmailExists", err)
	}
	if _, err := authn.Register(ctx, " ALICE@Example.com ", "Alice Three", "hunter2hunter2"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Register() with case-varied duplicate error = %v, want ErrEmailExists", err)
	}
}

func TestEmailsAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	authn := NewPasswordAuthenticator(newMemoryUserStore())

	user, err := authn.Register(ctx, " Alice@Example.COM ", "Alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("stored email = %q, want normalized alice@example.com", user.Email)
	}

	if _, err := authn.Authenticate(ctx, "alice@example.com", "hunter2hunter2"); err != nil {
		t.Errorf("Authenticate() with lowercased email error: %v", err)
	}
	if _, err := authn.Authenticate(ctx, "ALICE@EXAMPLE.COM", "hunter2hunter2"); err != nil {
		t.Errorf("Authenticate() with uppercased email error: %v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := models.NewUser("alice@example.com", "Alice", "hash")

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("claims.Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Subject != user.ID {
		t.Errorf("claims.Subject = %q, want %q", claims.Subject, user.ID)
	}
}

func TestJWTRejectsBadTokens(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := models.NewUser("alice@example.com", "Alice", "hash")

	if _, err := manager.Validate("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate(garbage) error = %v, want ErrInvalidToken", err)
	}

	// Signed with a different secret.
	other := NewJWTManager("other-secret", time.Hour)
	token, err := other.Generate(user)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate(wrong secret) error = %v, want ErrInvalidToken", err)
	}

	// Already expired.
	expired := NewJWTManager("test-secret", -time.Minute)
	token, err = expired.Generate(user)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate(expired) error = %v, want ErrInvalidToken", err)
	}

	// Right secret, wrong issuer.
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err = foreign.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error: %v", err)
	}
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate(wrong issuer) error = %v, want ErrInvalidToken", err)
	}
}
