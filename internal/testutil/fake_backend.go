package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeSessionCookie is the cookie the fake platform sets on login.
const FakeSessionCookie = "token"

// FakeFailure makes a fake platform endpoint answer with an error.
type FakeFailure struct {
	Status int
	Msg    string
}

// BackendCall is one request the fake platform received.
type BackendCall struct {
	Method string
	Path   string
	Body   map[string]any
	Token  string
}

// FakeBackend is an httptest platform API that validates every request and
// response against the OpenAPI contract.
type FakeBackend struct {
	Server *httptest.Server

	t         *testing.T
	validator *OpenAPIValidator

	mu         sync.Mutex
	role       string
	password   string
	token      string
	hospitalID string
	failures   map[string]*FakeFailure
	calls      []BackendCall
}

// NewFakeBackend starts a fake platform. Logins with password "secret123"
// succeed and /auth/me answers with role for the issued token.
func NewFakeBackend(t *testing.T, role string) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		t:          t,
		validator:  NewOpenAPIValidator(t, BackendSpecPath),
		role:       role,
		password:   "secret123",
		token:      "fake-session-token",
		hospitalID: "abc123",
		failures:   make(map[string]*FakeFailure),
	}

	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)

	return f
}

// URL returns the base URL of the fake platform.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// Token returns the session token the fake issues on login.
func (f *FakeBackend) Token() string {
	return f.token
}

// SetRole changes the role reported by /auth/me.
func (f *FakeBackend) SetRole(role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.role = role
}

// SetHospitalID changes the identifier returned on hospital registration.
func (f *FakeBackend) SetHospitalID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hospitalID = id
}

// Fail makes every request to path answer with failure; nil clears it.
func (f *FakeBackend) Fail(path string, failure *FakeFailure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if failure == nil {
		delete(f.failures, path)
		return
	}
	f.failures[path] = failure
}

// Calls returns the requests received for path.
func (f *FakeBackend) Calls(path string) []BackendCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []BackendCall
	for _, c := range f.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many requests were received for path.
func (f *FakeBackend) CallCount(path string) int {
	return len(f.Calls(path))
}

func (f *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	f.validator.ValidateRequest(f.t, r)

	call := BackendCall{Method: r.Method, Path: r.URL.Path}
	if ck, err := r.Cookie(FakeSessionCookie); err == nil {
		call.Token = ck.Value
	}
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &call.Body)
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	failure := f.failures[r.URL.Path]
	role, password, token, hospitalID := f.role, f.password, f.token, f.hospitalID
	f.mu.Unlock()

	rec := httptest.NewRecorder()
	switch {
	case failure != nil:
		writeJSON(rec, failure.Status, map[string]string{"msg": failure.Msg})
	case r.URL.Path == "/auth/login":
		if call.Body["password"] != password {
			writeJSON(rec, http.StatusUnauthorized, map[string]string{"msg": "Invalid credentials"})
			break
		}
		http.SetCookie(rec, &http.Cookie{Name: FakeSessionCookie, Value: token, Path: "/", HttpOnly: true})
		writeJSON(rec, http.StatusOK, map[string]string{"msg": "Login successful"})
	case call.Token != token:
		writeJSON(rec, http.StatusUnauthorized, map[string]string{"msg": "Not authenticated"})
	case r.URL.Path == "/auth/me":
		writeJSON(rec, http.StatusOK, map[string]string{"role": role})
	case r.URL.Path == "/systemAdmin/register-hospital":
		writeJSON(rec, http.StatusCreated, map[string]any{"hospital": map[string]string{"_id": hospitalID}})
	case r.URL.Path == "/systemAdmin/register-hospitalAdmin":
		writeJSON(rec, http.StatusCreated, map[string]string{"msg": "Administrator registered"})
	default:
		writeJSON(rec, http.StatusNotFound, map[string]string{"msg": "not found"})
	}

	if rec.Code != http.StatusNotFound {
		f.validator.ValidateRecordedResponse(f.t, r, rec)
	}

	for k, vals := range rec.Header() {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
