package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spendsmart/spendsmart/internal/config"
	"github.com/spendsmart/spendsmart/internal/domain/user"
	"github.com/spendsmart/spendsmart/internal/http/handlers"
	"github.com/spendsmart/spendsmart/internal/http/middlewares"
	"github.com/spendsmart/spendsmart/internal/repo/postgres"
	"github.com/spendsmart/spendsmart/internal/security"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fake implementations of the handler-side repo interfaces

type fakeUsersRepo struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	createFn     func(ctx context.Context, email, passwordHash, name string) (user.User, error)
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, passwordHash, name)
	}

	return user.User{ID: "u-1", Email: email, PasswordHash: passwordHash, Name: name}, nil
}

type fakeSessionManager struct {
	createFn  func(ctx context.Context, u user.User) (string, error)
	destroyFn func(ctx context.Context, id string) error
}

func (f *fakeSessionManager) Create(ctx context.Context, u user.User) (string, error) {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}

	return "sess-1", nil
}

func (f *fakeSessionManager) Destroy(ctx context.Context, id string) error {
	if f.destroyFn != nil {
		return f.destroyFn(ctx, id)
	}

	return nil
}

func (f *fakeSessionManager) TTL() time.Duration { return 24 * time.Hour }

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func doJSON(r *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func testConfig() config.Config {
	return config.Config{Env: "test", SessionTTLHours: 24}
}

// SignUp tests

func TestSignUpHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		usersSetUp     func(*fakeUsersRepo)
		wantStatusCode int
		wantErrorCode  string
	}{
		{
			name: "success",
			body: `{"name":"Sam Doe","email":"sam@example.com","password":"password123"}`,
			usersSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, email, passwordHash, name string) (user.User, error) {
					if passwordHash == "password123" {
						t.Fatalf("password must be stored hashed, not plain")
					}
					return user.User{ID: "u-1", Email: email, Name: name}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "existing email is rejected",
			body: `{"name":"Sam Doe","email":"sam@example.com","password":"password123"}`,
			usersSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{ID: "u-1", Email: email}, nil
				}
				f.createFn = func(ctx context.Context, email, passwordHash, name string) (user.User, error) {
					t.Fatalf("create must not be called when the email exists")
					return user.User{}, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantErrorCode:  "duplicate_user",
		},
		{
			name: "lost race on the unique index is still a duplicate",
			body: `{"name":"Sam Doe","email":"sam@example.com","password":"password123"}`,
			usersSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, email, passwordHash, name string) (user.User, error) {
					return user.User{}, postgres.ErrEmailAlreadyUsed
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantErrorCode:  "duplicate_user",
		},
		{
			name:           "validation error",
			body:           `{"email":"not-an-email"}`,
			wantStatusCode: http.StatusBadRequest,
			wantErrorCode:  "invalid_input",
		},
		{
			name: "repo error",
			body: `{"name":"Sam Doe","email":"sam@example.com","password":"password123"}`,
			usersSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, email, passwordHash, name string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantErrorCode:  "storage_error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsersRepo{}

			if tt.usersSetUp != nil {
				tt.usersSetUp(users)
			}

			h := handlers.NewAuthHandler(users, users, &fakeSessionManager{}, nil, testConfig())

			r := setupRouter(http.MethodPost, "/signup", h.SignUp)

			w := doJSON(r, http.MethodPost, "/signup", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantErrorCode != "" {
				var resp apiErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal error response: %v", err)
				}
				if resp.Error.Code != tt.wantErrorCode {
					t.Fatalf("error code = %q, want %q", resp.Error.Code, tt.wantErrorCode)
				}
			}
		})
	}
}

// Login tests

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("password123")

	if err != nil {
		t.Fatalf("could not hash fixture password: %v", err)
	}

	stored := user.User{ID: "u-1", Email: "sam@example.com", PasswordHash: hash, Name: "Sam Doe"}

	tests := []struct {
		name           string
		body           string
		usersSetUp     func(*fakeUsersRepo)
		sessionsSetUp  func(*fakeSessionManager)
		wantStatusCode int
		wantErrorCode  string
		wantName       string
		wantCookie     bool
	}{
		{
			name: "success returns display name and sets the cookie",
			body: `{"email":"sam@example.com","password":"password123"}`,
			usersSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantName:       "Sam Doe",
			wantCookie:     true,
		},
		{
			name: "wrong password",
			body: `{"email":"sam@example.com","password":"wrong-password"}`,
			usersSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantErrorCode:  "invalid_credentials",
		},
		{
			name:           "unknown email reads the same as a wrong password",
			body:           `{"email":"nobody@example.com","password":"password123"}`,
			wantStatusCode: http.StatusBadRequest,
			wantErrorCode:  "invalid_credentials",
		},
		{
			name: "session store failure",
			body: `{"email":"sam@example.com","password":"password123"}`,
			usersSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			sessionsSetUp: func(f *fakeSessionManager) {
				f.createFn = func(ctx context.Context, u user.User) (string, error) {
					return "", errors.New("redis down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantErrorCode:  "storage_error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsersRepo{}
			sessions := &fakeSessionManager{}

			if tt.usersSetUp != nil {
				tt.usersSetUp(users)
			}

			if tt.sessionsSetUp != nil {
				tt.sessionsSetUp(sessions)
			}

			h := handlers.NewAuthHandler(users, users, sessions, nil, testConfig())

			r := setupRouter(http.MethodPost, "/login", h.Login)

			w := doJSON(r, http.MethodPost, "/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantName != "" {
				var resp struct {
					Message string `json:"message"`
					Name    string `json:"name"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Name != tt.wantName {
					t.Fatalf("name = %q, want %q", resp.Name, tt.wantName)
				}
			}

			if tt.wantErrorCode != "" {
				var resp apiErrorResponse
				_ = json.Unmarshal(w.Body.Bytes(), &resp)
				if resp.Error.Code != tt.wantErrorCode {
					t.Fatalf("error code = %q, want %q", resp.Error.Code, tt.wantErrorCode)
				}
			}

			gotCookie := false

			for _, c := range w.Result().Cookies() {
				if c.Name == middlewares.SessionCookieName && c.Value != "" {
					gotCookie = true

					if !c.HttpOnly {
						t.Fatalf("session cookie must be HttpOnly")
					}
				}
			}

			if gotCookie != tt.wantCookie {
				t.Fatalf("session cookie set = %v, want %v", gotCookie, tt.wantCookie)
			}
		})
	}
}

// Logout tests

func TestLogoutHandler(t *testing.T) {
	t.Run("destroys the presented session and clears the cookie", func(t *testing.T) {
		destroyed := ""

		sessions := &fakeSessionManager{
			destroyFn: func(ctx context.Context, id string) error {
				destroyed = id
				return nil
			},
		}

		h := handlers.NewAuthHandler(&fakeUsersRepo{}, &fakeUsersRepo{}, sessions, nil, testConfig())

		r := setupRouter(http.MethodPost, "/logout", h.Logout)

		w := doJSON(r, http.MethodPost, "/logout", "", &http.Cookie{Name: middlewares.SessionCookieName, Value: "sess-9"})

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		if destroyed != "sess-9" {
			t.Fatalf("destroyed session = %q, want sess-9", destroyed)
		}

		cleared := false

		for _, c := range w.Result().Cookies() {
			if c.Name == middlewares.SessionCookieName && (c.MaxAge < 0 || c.Value == "") {
				cleared = true
			}
		}

		if !cleared {
			t.Fatalf("expected logout to clear the session cookie")
		}
	})

	t.Run("logout without a session is still acknowledged", func(t *testing.T) {
		sessions := &fakeSessionManager{
			destroyFn: func(ctx context.Context, id string) error {
				t.Fatalf("destroy must not be called without a cookie")
				return nil
			},
		}

		h := handlers.NewAuthHandler(&fakeUsersRepo{}, &fakeUsersRepo{}, sessions, nil, testConfig())

		r := setupRouter(http.MethodPost, "/logout", h.Logout)

		w := doJSON(r, http.MethodPost, "/logout", "")

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("store failure logs nothing out", func(t *testing.T) {
		sessions := &fakeSessionManager{
			destroyFn: func(ctx context.Context, id string) error {
				return errors.New("redis down")
			},
		}

		h := handlers.NewAuthHandler(&fakeUsersRepo{}, &fakeUsersRepo{}, sessions, nil, testConfig())

		r := setupRouter(http.MethodPost, "/logout", h.Logout)

		w := doJSON(r, http.MethodPost, "/logout", "", &http.Cookie{Name: middlewares.SessionCookieName, Value: "sess-9"})

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusInternalServerError, w.Body.String())
		}
	})
}
