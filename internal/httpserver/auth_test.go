package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/domain"
	usersvc "jewelry-storefront/internal/service/user"
)

type stubUserService struct {
	user        *domain.User
	token       string
	signErr     error
	loginErr    error
	lookupErr   error
	verifyErr   error
	lastSignup  usersvc.SignupInput
	loggedOut   string
	lastNewPass string
}

func (s *stubUserService) Signup(_ context.Context, in usersvc.SignupInput) (*domain.User, string, error) {
	s.lastSignup = in
	return s.user, s.token, s.signErr
}

func (s *stubUserService) Login(_ context.Context, _, _ string) (*domain.User, string, error) {
	return s.user, s.token, s.loginErr
}

func (s *stubUserService) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubUserService) LookupByToken(_ context.Context, _ string) (*domain.User, error) {
	return s.user, s.lookupErr
}

func (s *stubUserService) ForgotPassword(_ context.Context, _ string) error {
	return nil
}

func (s *stubUserService) VerifyCode(_ context.Context, _, _, newPassword string) error {
	s.lastNewPass = newPassword
	return s.verifyErr
}

func TestSignupHandler_Created(t *testing.T) {
	deps := testDeps()
	users := &stubUserService{user: &domain.User{ID: "u1", Email: "user@example.com"}, token: "tok"}
	deps.UserSvc = users
	router := newTestRouter(t, deps)

	rec := serve(router, http.MethodPost, "/api/signup", `{"email":"user@example.com","password":"Abcdefg1","firstName":"Ada"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out api.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Msg != api.MsgSignedUp || out.Token != "tok" || out.User.Email != "user@example.com" {
		t.Fatalf("unexpected body %+v", out)
	}
	if users.lastSignup.FirstName != "Ada" {
		t.Fatalf("signup input not forwarded: %+v", users.lastSignup)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks password field: %s", rec.Body.String())
	}
}

func TestSignupHandler_Duplicate(t *testing.T) {
	deps := testDeps()
	deps.UserSvc = &stubUserService{signErr: domain.ErrAlreadyExists}
	router := newTestRouter(t, deps)
	rec := serve(router, http.MethodPost, "/api/signup", `{"email":"a@b.c","password":"Abcdefg1"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSigninHandler_InvalidCredentials(t *testing.T) {
	deps := testDeps()
	deps.UserSvc = &stubUserService{loginErr: usersvc.ErrInvalidCredentials}
	router := newTestRouter(t, deps)

	rec := serve(router, http.MethodPost, "/api/signin", `{"email":"user@example.com","password":"bad"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if body := decodeError(t, rec); body.Message != usersvc.ErrInvalidCredentials.Error() {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestSigninHandler_MalformedBody(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := serve(router, http.MethodPost, "/api/signin", `{"email":`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSignoutHandler(t *testing.T) {
	deps := testDeps()
	users := &stubUserService{}
	deps.UserSvc = users
	router := newTestRouter(t, deps)

	if rec := serve(router, http.MethodPost, "/api/signout", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without token, got %d", rec.Code)
	}
	if users.loggedOut != "" {
		t.Fatalf("nothing should be revoked without a token")
	}
	if rec := serve(router, http.MethodPost, "/api/signout", "", "tok"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if users.loggedOut != "tok" {
		t.Fatalf("expected token revoked, got %q", users.loggedOut)
	}
}

func TestVerifyCodeHandler(t *testing.T) {
	deps := testDeps()
	users := &stubUserService{}
	deps.UserSvc = users
	router := newTestRouter(t, deps)

	rec := serve(router, http.MethodPost, "/api/user/verifyCode", `{"email":"a@b.c","code":"123456","newPassword":"Newpass1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out api.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Message != api.MsgPasswordSet || users.lastNewPass != "Newpass1" {
		t.Fatalf("unexpected response %+v", out)
	}

	users.verifyErr = usersvc.ErrInvalidCode
	rec = serve(router, http.MethodPost, "/api/user/verifyCode", `{"email":"a@b.c","code":"000000"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestForgotPasswordHandler(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := serve(router, http.MethodPost, "/api/user/forgotpassword", `{"email":"a@b.c"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), api.MsgCodeSent) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
