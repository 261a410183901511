package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
	"github.com/mandimarket/marketplace-api/internal/core/token"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email || u.Phone == user.Phone {
			return nil, domain.ErrDuplicateUser
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user_%d", r.nextID)
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func newAuthService(repo ports.UserRepository) *AuthService {
	return NewAuthService(repo, token.New("test-secret"), zerolog.Nop())
}

func registerInput(email, phone string) ports.RegisterInput {
	return ports.RegisterInput{
		Name:     "Alice",
		Email:    email,
		Phone:    phone,
		Address:  "1 Market St",
		Password: "pass123",
		Role:     domain.RoleVendor,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	user, tkn, err := svc.Register(context.Background(), registerInput("alice@example.com", "111"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected user id to be assigned")
	}
	if tkn == "" {
		t.Fatalf("expected session token")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	in := registerInput("a@example.com", "111")
	in.Address = ""
	var ve *domain.ValidationError
	if _, _, err := svc.Register(context.Background(), in); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for missing field, got %v", err)
	}

	in = registerInput("a@example.com", "111")
	in.Role = "superuser"
	if _, _, err := svc.Register(context.Background(), in); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for unknown role, got %v", err)
	}

	in = registerInput("a@example.com", "111")
	in.Role = domain.RoleAdmin
	if _, _, err := svc.Register(context.Background(), in); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for admin self-registration, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmailOrPhone(t *testing.T) {
	// Same email with a different phone, and same phone with a different
	// email, must both fail — in either order of registration.
	cases := []struct {
		name          string
		first, second ports.RegisterInput
	}{
		{"same email", registerInput("dup@example.com", "111"), registerInput("dup@example.com", "222")},
		{"same phone", registerInput("a@example.com", "333"), registerInput("b@example.com", "333")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, pair := range [][2]ports.RegisterInput{{tc.first, tc.second}, {tc.second, tc.first}} {
				svc := newAuthService(newStubUserRepo())
				if _, _, err := svc.Register(context.Background(), pair[0]); err != nil {
					t.Fatalf("first registration failed: %v", err)
				}
				if _, _, err := svc.Register(context.Background(), pair[1]); !errors.Is(err, domain.ErrDuplicateUser) {
					t.Fatalf("expected ErrDuplicateUser, got %v", err)
				}
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)

	reg, _, err := svc.Register(context.Background(), registerInput("carol@example.com", "444"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, tkn, err := svc.Login(context.Background(), "carol@example.com", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if tkn == "" {
		t.Fatalf("expected session token")
	}
	if user.ID != reg.ID {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Login_UniformFailure(t *testing.T) {
	svc := newAuthService(newStubUserRepo())
	_, _, _ = svc.Register(context.Background(), registerInput("dave@example.com", "555"))

	// Wrong password and unknown email must be indistinguishable.
	_, _, wrongPass := svc.Login(context.Background(), "dave@example.com", "badpass")
	_, _, unknown := svc.Login(context.Background(), "ghost@example.com", "pass123")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPass, unknown)
	}
}

func TestAuthService_Profile(t *testing.T) {
	svc := newAuthService(newStubUserRepo())
	reg, _, err := svc.Register(context.Background(), registerInput("erin@example.com", "666"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, err := svc.Profile(context.Background(), reg.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if user.Email != "erin@example.com" {
		t.Fatalf("unexpected profile: %+v", user)
	}

	if _, err := svc.Profile(context.Background(), "vanished"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
