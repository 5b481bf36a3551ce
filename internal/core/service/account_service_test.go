package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/account-service/internal/core/domain"
	"github.com/99minutos/account-service/internal/core/ports"
)

type stubAccountStore struct {
	users     map[string]*domain.User
	insertErr error
	findErr   error
	inserts   int
}

func newStubAccountStore() *stubAccountStore {
	return &stubAccountStore{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAccountStore) Insert(_ context.Context, user *domain.User) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if err := user.Validate(); err != nil {
		return err
	}
	r.inserts++
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubAccountStore) FindBy(_ context.Context, field domain.LookupField, value string) ([]*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*domain.User
	for _, u := range r.users {
		var v string
		switch field {
		case domain.FieldID:
			v = u.ID
		case domain.FieldEmail:
			v = u.Email
		case domain.FieldUsername:
			v = u.Username
		default:
			return nil, domain.ErrInvalidField
		}
		if v == value {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubAccountStore) Update(_ context.Context, id string, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if _, ok := r.users[id]; !ok {
		return nil
	}
	updated := cloneUser(user)
	updated.ID = id
	r.users[id] = updated
	return nil
}

func (r *stubAccountStore) DeleteByID(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *stubAccountStore) Ping(context.Context) error { return nil }

func newTestAccountService(store ports.AccountStore) (*AccountService, *SessionAuthority) {
	sessions := NewSessionAuthority("secret", time.Hour, zerolog.Nop())
	return NewAccountService(store, sessions, bcrypt.MinCost, zerolog.Nop()), sessions
}

var validInput = ports.AccountInput{
	Name:     "A",
	Username: "a1",
	Email:    "a@x.com",
	Password: "password1",
}

func TestAccountService_Register_Success(t *testing.T) {
	store := newStubAccountStore()
	svc, sessions := newTestAccountService(store)

	res, err := svc.Register(context.Background(), validInput)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.User.ID == "" {
		t.Fatalf("expected generated id")
	}

	stored := store.users[res.User.ID]
	if stored == nil {
		t.Fatalf("expected user to be persisted")
	}
	if stored.PasswordHash == "password1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	claims, _, err := sessions.Authorize(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if claims.Email != "a@x.com" || claims.UserID != res.User.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	cases := []struct {
		name string
		in   ports.AccountInput
		want error
	}{
		{"missing name", ports.AccountInput{Username: "a1", Email: "a@x.com", Password: "password1"}, domain.ErrMissingData},
		{"missing username", ports.AccountInput{Name: "A", Email: "a@x.com", Password: "password1"}, domain.ErrMissingData},
		{"missing email", ports.AccountInput{Name: "A", Username: "a1", Password: "password1"}, domain.ErrMissingData},
		{"missing password", ports.AccountInput{Name: "A", Username: "a1", Email: "a@x.com"}, domain.ErrMissingData},
		{"short password", ports.AccountInput{Name: "A", Username: "a1", Email: "a@x.com", Password: "short"}, domain.ErrPasswordTooShort},
		{"short multi-byte password", ports.AccountInput{Name: "A", Username: "a1", Email: "a@x.com", Password: "ñññ€"}, domain.ErrPasswordTooShort},
		{"long password", ports.AccountInput{Name: "A", Username: "a1", Email: "a@x.com", Password: strings.Repeat("p", 73)}, domain.ErrPasswordTooLong},
		{"multi-byte password over byte limit", ports.AccountInput{Name: "A", Username: "a1", Email: "a@x.com", Password: strings.Repeat("€", 25)}, domain.ErrPasswordTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if store.inserts != 0 {
		t.Fatalf("expected no writes, got %d", store.inserts)
	}
}

func TestAccountService_Register_EmailInUse(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	if _, err := svc.Register(context.Background(), validInput); err != nil {
		t.Fatalf("first register: %v", err)
	}

	dup := validInput
	dup.Username = "other"
	if _, err := svc.Register(context.Background(), dup); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}

	found, _ := store.FindBy(context.Background(), domain.FieldEmail, "a@x.com")
	if len(found) != 1 {
		t.Fatalf("expected exactly one record for the email, got %d", len(found))
	}
}

func TestAccountService_Register_UsernameInUse(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	if _, err := svc.Register(context.Background(), validInput); err != nil {
		t.Fatalf("first register: %v", err)
	}

	dup := validInput
	dup.Email = "b@x.com"
	if _, err := svc.Register(context.Background(), dup); !errors.Is(err, domain.ErrUsernameInUse) {
		t.Fatalf("expected ErrUsernameInUse, got %v", err)
	}
}

func TestAccountService_Register_StoreConflictWins(t *testing.T) {
	store := newStubAccountStore()
	store.insertErr = domain.ErrEmailInUse
	svc, _ := newTestAccountService(store)

	res, err := svc.Register(context.Background(), validInput)
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse from store, got %v", err)
	}
	if res != nil {
		t.Fatalf("no session may be issued when the write fails")
	}
}

func TestAccountService_Register_StorageFailure(t *testing.T) {
	store := newStubAccountStore()
	store.insertErr = errors.New("connection refused")
	svc, _ := newTestAccountService(store)

	res, err := svc.Register(context.Background(), validInput)
	if err == nil || res != nil {
		t.Fatalf("expected storage failure to propagate, got res=%v err=%v", res, err)
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	store := newStubAccountStore()
	svc, sessions := newTestAccountService(store)

	if _, err := svc.Register(context.Background(), validInput); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "a@x.com", "password1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" || res.User.Username != "a1" {
		t.Fatalf("unexpected login result: %+v", res)
	}
	if _, _, err := sessions.Authorize(context.Background(), res.Token); err != nil {
		t.Fatalf("login token rejected: %v", err)
	}
}

func TestAccountService_Login_InvalidPassword(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	_, _ = svc.Register(context.Background(), validInput)
	res, err := svc.Login(context.Background(), "a@x.com", "badpassword")
	if !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no token on failed login")
	}
}

func TestAccountService_Login_UserNotFound(t *testing.T) {
	svc, _ := newTestAccountService(newStubAccountStore())

	if _, err := svc.Login(context.Background(), "ghost@x.com", "password1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountService_Me(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	res, _ := svc.Register(context.Background(), validInput)
	user, err := svc.Me(context.Background(), domain.SessionClaims{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != res.User.ID {
		t.Fatalf("expected %s, got %s", res.User.ID, user.ID)
	}

	if _, err := svc.Me(context.Background(), domain.SessionClaims{Email: "gone@x.com"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountService_UpdateSelf(t *testing.T) {
	store := newStubAccountStore()
	svc, sessions := newTestAccountService(store)

	res, _ := svc.Register(context.Background(), validInput)
	claims := domain.ClaimsFor(res.User, "sess-1")

	next := ports.AccountInput{Name: "B", Username: "b1", Email: "b@x.com", Password: "password2"}
	updated, err := svc.UpdateSelf(context.Background(), claims, next)
	if err != nil {
		t.Fatalf("UpdateSelf: %v", err)
	}

	stored := store.users[res.User.ID]
	if stored.Email != "b@x.com" || stored.Name != "B" || stored.Username != "b1" {
		t.Fatalf("record not updated: %+v", stored)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password2")) != nil {
		t.Fatalf("password not rehashed")
	}

	got, _, err := sessions.Authorize(context.Background(), updated.Token)
	if err != nil {
		t.Fatalf("updated token rejected: %v", err)
	}
	if got.Email != "b@x.com" || got.SessionID != "sess-1" {
		t.Fatalf("unexpected claims after update: %+v", got)
	}
}

func TestAccountService_UpdateSelf_KeepsOwnEmail(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	res, _ := svc.Register(context.Background(), validInput)
	in := validInput
	in.Name = "Renamed"
	if _, err := svc.UpdateSelf(context.Background(), domain.ClaimsFor(res.User, "s"), in); err != nil {
		t.Fatalf("updating own record with unchanged email must succeed: %v", err)
	}
}

func TestAccountService_UpdateSelf_Conflict(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	first, _ := svc.Register(context.Background(), validInput)
	_, _ = svc.Register(context.Background(), ports.AccountInput{Name: "B", Username: "b1", Email: "b@x.com", Password: "password2"})

	in := validInput
	in.Email = "b@x.com"
	if _, err := svc.UpdateSelf(context.Background(), domain.ClaimsFor(first.User, "s"), in); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
}

func TestAccountService_DeleteSelf(t *testing.T) {
	store := newStubAccountStore()
	svc, _ := newTestAccountService(store)

	res, _ := svc.Register(context.Background(), validInput)
	claims := domain.ClaimsFor(res.User, "s")

	if err := svc.DeleteSelf(context.Background(), claims, "someone-else"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("foreign delete must not remove anything")
	}

	if err := svc.DeleteSelf(context.Background(), claims, res.User.ID); err != nil {
		t.Fatalf("DeleteSelf: %v", err)
	}
	if len(store.users) != 0 {
		t.Fatalf("expected account to be deleted")
	}
}

func TestAccountService_LogoutRevokesSession(t *testing.T) {
	deny := newStubDenylist()
	sessions := NewSessionAuthority("secret", time.Hour, zerolog.Nop(), WithDenylist(deny))
	svc := NewAccountService(newStubAccountStore(), sessions, bcrypt.MinCost, zerolog.Nop())

	if err := svc.Logout(context.Background(), domain.SessionClaims{SessionID: "sess-9"}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := deny.revoked["sess-9"]; !ok {
		t.Fatalf("expected session to be revoked")
	}
}
