package ez

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bizmatch/internal/domain"
	resp "bizmatch/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad input", domain.ErrValidation), resp.CodeBadRequest},
		{fmt.Errorf("%w: nope", domain.ErrAuth), resp.CodeUnauthorized},
		{fmt.Errorf("%w: not yours", domain.ErrForbidden), resp.CodeForbidden},
		{fmt.Errorf("%w: gone", domain.ErrNotFound), resp.CodeNotFound},
		{fmt.Errorf("%w: dup", domain.ErrConflict), resp.CodeConflict},
		{fmt.Errorf("db exploded"), resp.CodeServerError},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Fatalf("CodeOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func doReq(t *testing.T, r *gin.Engine, method, path, body string) resp.Resp {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	// 信封永远走 HTTP 200
	if w.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", w.Code)
	}
	var out resp.Resp
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	return out
}

func TestActionEnvelope(t *testing.T) {
	r := gin.New()
	e := New(r.Group("/"))

	type in struct {
		Name string `json:"name" binding:"required"`
	}
	type out struct {
		Greeting string `json:"greeting"`
	}
	RegisterAction[in, out](e, Action[in, out]{
		Method: http.MethodPost,
		Path:   "/hello",
		Binder: BindJSON,
		Handler: func(c *gin.Context, i *in) (out, error) {
			if i.Name == "ghost" {
				return out{}, fmt.Errorf("%w: no such user", domain.ErrNotFound)
			}
			return out{Greeting: "hi " + i.Name}, nil
		},
	})

	if got := doReq(t, r, http.MethodPost, "/hello", `{"name":"ada"}`); got.Code != resp.CodeOK {
		t.Fatalf("expected code 0, got %+v", got)
	}
	if got := doReq(t, r, http.MethodPost, "/hello", `{}`); got.Code != resp.CodeBadRequest {
		t.Fatalf("bind failure: expected 400 envelope, got %+v", got)
	}
	if got := doReq(t, r, http.MethodPost, "/hello", `{"name":"ghost"}`); got.Code != resp.CodeNotFound {
		t.Fatalf("sentinel mapping: expected 404 envelope, got %+v", got)
	}
}

func TestActionAuthGate(t *testing.T) {
	r := gin.New()

	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			c.Set("userId", c.GetHeader("X-Test-User"))
			c.Set("role", c.GetHeader("X-Test-Role"))
		}
	})
	e := New(authed)

	RegisterAction[struct{}, gin.H](e, Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/secure",
		Binder: BindNone,
		Auth:   true,
		Roles:  []string{"admin"},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			return gin.H{"uid": c.GetString("userId")}, nil
		},
	})

	anon := doReq(t, r, http.MethodPost, "/secure", "")
	if anon.Code != resp.CodeUnauthorized {
		t.Fatalf("anonymous: expected 401 envelope, got %+v", anon)
	}

	req := httptest.NewRequest(http.MethodPost, "/secure", nil)
	req.Header.Set("X-Test-User", "u1")
	req.Header.Set("X-Test-Role", "seller")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var denied resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &denied)
	if denied.Code != resp.CodeForbidden {
		t.Fatalf("wrong role: expected 403 envelope, got %+v", denied)
	}

	req = httptest.NewRequest(http.MethodPost, "/secure", nil)
	req.Header.Set("X-Test-User", "u1")
	req.Header.Set("X-Test-Role", "admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var ok resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &ok)
	if ok.Code != resp.CodeOK {
		t.Fatalf("admin: expected success, got %+v", ok)
	}
}
