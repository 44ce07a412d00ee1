package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/clicklink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/clicklink/pkg/adapters/repository"
	"github.com/wadjakorntonsri/clicklink/pkg/config"
	"github.com/wadjakorntonsri/clicklink/pkg/core/services"
)

type linkBody struct {
	Code        string     `json:"code"`
	TargetURL   string     `json:"target_url"`
	Clicks      int64      `json:"clicks"`
	LastClicked *time.Time `json:"last_clicked"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := repository.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	cfg := &config.Config{BaseURL: "http://sho.rt", MaxBodyBytes: 1 << 20}
	server := httptest.NewServer(handler.NewRouter(cfg, services.NewLinkService(repo)))
	t.Cleanup(server.Close)
	return server
}

func noFollowClient(server *httptest.Server) *http.Client {
	client := server.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func getLink(t *testing.T, client *http.Client, url string) (int, linkBody) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body linkBody
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, body
}

func TestIntegration(t *testing.T) {
	server := newTestServer(t)
	client := noFollowClient(server)

	// Create Link
	payload, _ := json.Marshal(map[string]string{
		"code":       "abc",
		"target_url": "https://example.com",
	})
	resp, err := client.Post(server.URL+"/api/links", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("Failed JSON POST: %v", err)
	}
	var created linkBody
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	if created.Clicks != 0 || created.LastClicked != nil || created.Code != "abc" {
		t.Errorf("unexpected created body: %+v", created)
	}

	// Duplicate
	resp, err = client.Post(server.URL+"/api/links", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", resp.StatusCode)
	}

	// Redirect
	resp, err = client.Get(server.URL + "/abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("Redirect expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com" {
		t.Errorf("Redirect location mismatch: %s", loc)
	}

	// Click recorded before the redirect response
	status, link := getLink(t, client, server.URL+"/api/links/abc")
	if status != http.StatusOK {
		t.Fatalf("Get expected 200, got %d", status)
	}
	if link.Clicks != 1 || link.LastClicked == nil {
		t.Errorf("after redirect: clicks=%d last_clicked=%v", link.Clicks, link.LastClicked)
	}

	// List
	resp, err = client.Get(server.URL + "/api/links")
	if err != nil {
		t.Fatal(err)
	}
	var links []linkBody
	json.NewDecoder(resp.Body).Decode(&links)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(links) != 1 {
		t.Errorf("List: status %d, %d links", resp.StatusCode, len(links))
	}

	// Delete
	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/links/abc", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var deleted map[string]bool
	json.NewDecoder(resp.Body).Decode(&deleted)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !deleted["success"] {
		t.Errorf("Delete: status %d body %v", resp.StatusCode, deleted)
	}

	// Redirect after delete
	resp, err = client.Get(server.URL + "/abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Redirect after delete expected 404, got %d", resp.StatusCode)
	}
	if status, _ := getLink(t, client, server.URL+"/api/links/abc"); status != http.StatusNotFound {
		t.Errorf("Get after delete expected 404, got %d", status)
	}
}

func TestConcurrentRedirects(t *testing.T) {
	server := newTestServer(t)
	client := noFollowClient(server)

	payload, _ := json.Marshal(map[string]string{"code": "hot", "target_url": "https://example.com/hot"})
	resp, err := client.Post(server.URL+"/api/links", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(server.URL + "/hot")
			if err != nil {
				t.Error(err)
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusFound {
				t.Errorf("status = %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	_, link := getLink(t, client, server.URL+"/api/links/hot")
	if link.Clicks != n {
		t.Errorf("clicks = %d, want %d", link.Clicks, n)
	}
}

func TestInvalidURLRejected(t *testing.T) {
	server := newTestServer(t)
	for _, target := range []string{"", "example.com", "javascript:alert(1)"} {
		payload, _ := json.Marshal(map[string]string{"code": "x", "target_url": target})
		resp, err := server.Client().Post(server.URL+"/api/links", "application/json", bytes.NewBuffer(payload))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("target %q: expected 400, got %d", target, resp.StatusCode)
		}
	}
}

func TestReservedCodeRejected(t *testing.T) {
	server := newTestServer(t)
	for _, code := range []string{"healthz", "api", "auth"} {
		payload, _ := json.Marshal(map[string]string{"code": code, "target_url": "https://example.com"})
		resp, err := server.Client().Post(server.URL+"/api/links", "application/json", bytes.NewBuffer(payload))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("code %q: expected 400, got %d", code, resp.StatusCode)
		}
	}

	resp, err := noFollowClient(server).Get(server.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", resp.StatusCode)
	}
}
