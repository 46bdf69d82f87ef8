package mockapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("test-secret")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRegisterThenLogin(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/register", map[string]string{
		"name":     "Amina",
		"email":    "amina@example.com",
		"password": "s3cret1",
		"phone":    "0712345678",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/auth/login", map[string]string{
		"email":    "amina@example.com",
		"password": "s3cret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if body.Token == "" {
		t.Error("expected a token in the login response")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/register", map[string]string{
		"name":     "Amina",
		"email":    "amina@example.com",
		"password": "abc",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProtectedEndpointRejectsBadToken(t *testing.T) {
	s, ts := newTestServer(t)
	user := s.SeedUser("Amina", "amina@example.com", "s3cret1", "")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/users/"+user.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request without token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/users/"+user.ID, nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request with bad token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", resp.StatusCode)
	}
}

func TestUpdateDiscussionNotAuthor(t *testing.T) {
	s, ts := newTestServer(t)
	author := s.SeedUser("Amina", "amina@example.com", "s3cret1", "")
	other := s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "")
	post := s.SeedDiscussion(author, "Rain forecast", "Long rains look late this year.")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("title", "Hijacked")
	w.Close()

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/community/discussions/"+post.ID, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.TokenFor(other.ID))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("update request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}

func TestStatsCountUsersAndDiscussions(t *testing.T) {
	s, ts := newTestServer(t)
	author := s.SeedUser("Amina", "amina@example.com", "s3cret1", "")
	s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "")
	s.SeedDiscussion(author, "Rain forecast", "Long rains look late this year.")

	resp, err := http.Get(ts.URL + "/api/community/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	defer resp.Body.Close()

	var stats struct {
		TotalUsers       int `json:"totalUsers"`
		TotalDiscussions int `json:"totalDiscussions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalDiscussions != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
