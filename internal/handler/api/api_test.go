// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/traveldesk-go/internal/cache"
	"github.com/olegiv/traveldesk-go/internal/handler/api"
	"github.com/olegiv/traveldesk-go/internal/imaging"
	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/service"
	"github.com/olegiv/traveldesk-go/internal/store"
	"github.com/olegiv/traveldesk-go/internal/testutil"
)

// testServer is a full API stack backed by a temp database.
type testServer struct {
	*httptest.Server
	apiKey  string
	queries *store.Queries
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.TestLogger()

	c := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	enquiries := service.NewEnquiries(db, logger, nil)
	blogs := service.NewBlogs(db, logger, c)
	admin := service.NewAdmin(db, logger)
	processor := imaging.NewProcessor(t.TempDir())
	h := api.NewHandler(enquiries, blogs, admin, processor, logger)

	// Issue an admin API key for the protected routes.
	rawKey, prefix, err := model.GenerateAPIKey()
	require.NoError(t, err)
	now := time.Now()
	_, err = store.New(db).CreateAPIKey(context.Background(), store.CreateAPIKeyParams{
		Name:      "test-admin",
		KeyHash:   model.HashAPIKey(rawKey),
		KeyPrefix: prefix,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.Router(h, db, 1000, 1000))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, apiKey: rawKey, queries: store.New(db)}
}

// do sends a JSON request, optionally authenticated, and decodes the
// envelope.
func (ts *testServer) do(t *testing.T, method, path string, body any, admin bool) (*http.Response, api.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+ts.apiKey)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var envelope api.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func submitBody() map[string]string {
	return map[string]string{
		"name":        "Jordan Miles",
		"phoneNumber": "07700900123",
		"email":       "jordan@example.com",
		"message":     "Two weeks in Japan, please.",
	}
}

func blogBody(slug string) map[string]any {
	return map[string]any{
		"title":    "Ten Days in Kyoto",
		"slug":     slug,
		"category": "destinations",
		"status":   model.BlogStatusPublished,
		"content": []map[string]any{
			{"type": "paragraph", "text": "Kyoto rewards slow travel."},
		},
		"tags": []string{"japan"},
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, envelope := ts.do(t, http.MethodGet, "/status", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestSubmitEnquiryEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, envelope := ts.do(t, http.MethodPost, "/enquiries/submit", submitBody(), false)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Enquiry submitted successfully", envelope.Message)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jordan Miles", data["name"])
	assert.Equal(t, "07700900123", data["phoneNumber"])
	assert.Equal(t, model.EnquiryStatusPending, data["status"])
	assert.NotContains(t, data, "adminNotes")
}

func TestSubmitEnquiryValidationEndpoint(t *testing.T) {
	ts := newTestServer(t)

	body := submitBody()
	body["email"] = "nope"
	resp, envelope := ts.do(t, http.MethodPost, "/enquiries/submit", body, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "email")
}

func TestAdminEnquiryRoutesRequireKey(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/enquiries/admin/all", "/enquiries/admin/stats", "/enquiries/admin/1"} {
		resp, envelope := ts.do(t, http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.False(t, envelope.Success, path)
	}
}

func TestListEnquiriesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp, _ := ts.do(t, http.MethodPost, "/enquiries/submit", submitBody(), false)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, envelope := ts.do(t, http.MethodGet, "/enquiries/admin/all?page=1&limit=2", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)

	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.CurrentPage)
	assert.Equal(t, 2, envelope.Pagination.TotalPages)
	assert.Equal(t, int64(3), envelope.Pagination.Total)
	assert.True(t, envelope.Pagination.HasNext)

	items, ok := envelope.Data.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestEnquiryLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	_, created := ts.do(t, http.MethodPost, "/enquiries/submit", submitBody(), false)
	id := int64(created.Data.(map[string]any)["id"].(float64))

	resp, envelope := ts.do(t, http.MethodPut, fmt.Sprintf("/enquiries/admin/%d", id),
		map[string]string{"status": "resolved", "adminNotes": "Booked."}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, "resolved", data["status"])
	assert.Equal(t, "Booked.", data["adminNotes"])

	resp, envelope = ts.do(t, http.MethodGet, fmt.Sprintf("/enquiries/admin/%d", id), nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "resolved", envelope.Data.(map[string]any)["status"])

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/enquiries/admin/%d", id), nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope = ts.do(t, http.MethodGet, fmt.Sprintf("/enquiries/admin/%d", id), nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, envelope.Success)

	resp, _ = ts.do(t, http.MethodGet, "/enquiries/admin/abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEnquiryStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/enquiries/submit", submitBody(), false)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, envelope := ts.do(t, http.MethodGet, "/enquiries/admin/stats", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := envelope.Data.(map[string]any)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(1), data["pending"])

	trend, ok := data["monthlyTrend"].([]any)
	require.True(t, ok)
	assert.Len(t, trend, 6)
}

func TestBlogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	// Creation requires the admin key.
	resp, _ := ts.do(t, http.MethodPost, "/blogs", blogBody("kyoto-guide"), false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, envelope := ts.do(t, http.MethodPost, "/blogs", blogBody("kyoto-guide"), true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Blog created successfully", envelope.Message)
	id := int64(envelope.Data.(map[string]any)["id"].(float64))

	draft := blogBody("draft-post")
	draft["status"] = model.BlogStatusDraft
	resp, _ = ts.do(t, http.MethodPost, "/blogs", draft, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Public listing sees published posts only, with a count.
	resp, envelope = ts.do(t, http.MethodGet, "/blogs", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, envelope.Count)
	assert.Equal(t, 1, *envelope.Count)

	// Admins can list drafts with an explicit status filter.
	resp, envelope = ts.do(t, http.MethodGet, "/blogs?status=Draft", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, envelope.Count)
	assert.Equal(t, 1, *envelope.Count)

	// Published posts resolve by slug; drafts do not.
	resp, envelope = ts.do(t, http.MethodGet, "/blogs/slug/kyoto-guide", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ten Days in Kyoto", envelope.Data.(map[string]any)["title"])

	resp, _ = ts.do(t, http.MethodGet, "/blogs/slug/draft-post", nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Update and delete round-trip.
	resp, envelope = ts.do(t, http.MethodPut, fmt.Sprintf("/blogs/%d", id),
		map[string]any{"title": "Kyoto, Revisited"}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Kyoto, Revisited", envelope.Data.(map[string]any)["title"])

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/blogs/%d", id), nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/blogs/%d", id), nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeaturedBlogsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 4; i++ {
		body := blogBody(fmt.Sprintf("featured-%d", i))
		body["featured"] = true
		resp, _ := ts.do(t, http.MethodPost, "/blogs", body, true)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, envelope := ts.do(t, http.MethodGet, "/blogs/featured", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, envelope.Count)
	assert.Equal(t, model.MaxFeatured, *envelope.Count)
}

func TestAPIKeyEndpoints(t *testing.T) {
	ts := newTestServer(t)

	// Provisioning requires an existing admin key.
	resp, _ := ts.do(t, http.MethodPost, "/admin/keys", map[string]string{"name": "ci"}, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, envelope := ts.do(t, http.MethodPost, "/admin/keys", map[string]string{"name": "ci"}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "API key created successfully", envelope.Message)

	data := envelope.Data.(map[string]any)
	rawKey, ok := data["key"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, rawKey)

	keyInfo := data["apiKey"].(map[string]any)
	assert.Equal(t, "ci", keyInfo["name"])
	assert.Equal(t, rawKey[:8], keyInfo["keyPrefix"])
	assert.NotContains(t, keyInfo, "keyHash")
	id := int64(keyInfo["id"].(float64))

	// The new key authenticates admin routes.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/admin/keys", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	keyResp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = keyResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, keyResp.StatusCode)

	// Listing shows both keys, never the raw material.
	resp, envelope = ts.do(t, http.MethodGet, "/admin/keys", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, envelope.Count)
	assert.Equal(t, 2, *envelope.Count)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/admin/keys/%d", id), nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/admin/keys/%d", id), nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/admin/keys", map[string]string{"name": ""}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhookEndpoints(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]any{
		"name":   "crm",
		"url":    "https://crm.example.com/hooks",
		"events": []string{model.EventEnquirySubmitted},
	}
	resp, envelope := ts.do(t, http.MethodPost, "/admin/webhooks", body, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Webhook created successfully", envelope.Message)

	data := envelope.Data.(map[string]any)
	assert.NotEmpty(t, data["secret"])
	hook := data["webhook"].(map[string]any)
	assert.Equal(t, "crm", hook["name"])
	assert.NotContains(t, hook, "secret")
	id := int64(hook["id"].(float64))

	// Listing never exposes the signing secret.
	resp, envelope = ts.do(t, http.MethodGet, "/admin/webhooks", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items := envelope.Data.([]any)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0].(map[string]any), "secret")

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/admin/webhooks/%d", id), nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/admin/webhooks/%d", id), nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body["url"] = "not-a-url"
	resp, _ = ts.do(t, http.MethodPost, "/admin/webhooks", body, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/admin/events", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for i := 0; i < 3; i++ {
		_, err := ts.queries.CreateEvent(context.Background(), store.CreateEventParams{
			Level:     model.EventLevelWarning,
			Category:  model.EventCategorySystem,
			Message:   fmt.Sprintf("disk usage at %d%%", 80+i),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	resp, envelope := ts.do(t, http.MethodGet, "/admin/events?limit=2", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, envelope.Count)
	assert.Equal(t, 2, *envelope.Count)

	items, ok := envelope.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	// Newest first.
	entry := items[0].(map[string]any)
	assert.Equal(t, model.EventCategorySystem, entry["category"])
	assert.Equal(t, "disk usage at 82%", entry["message"])
}

func TestUploadImageEndpoint(t *testing.T) {
	ts := newTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "hero.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/upload/image", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.apiKey)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
		Data    struct {
			ID     string `json:"id"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Contains(t, result.URL, "/uploads/originals/")
	assert.Equal(t, 40, result.Data.Width)
	assert.Equal(t, 30, result.Data.Height)

	// Upload without the key is rejected.
	req2, err := http.NewRequest(http.MethodPost, ts.URL+"/upload/image", bytes.NewReader(nil))
	require.NoError(t, err)
	resp2, err := ts.Client().Do(req2)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}
