package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/Neumenon/mathtex/config"
	"github.com/Neumenon/mathtex/stream"
)

func testSettings() Settings {
	return Settings{Enabled: true, Host: "127.0.0.1", Port: 0, MaxBodyBytes: 4096, MaxBatch: 200, Workers: 4,
		ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 9001
	cfg.Envs = []string{"amsmath"}
	settings := SettingsFromConfig(cfg)
	if settings.Address() != "127.0.0.1:9001" {
		t.Errorf("Address = %q", settings.Address())
	}
	if !settings.Env.Has("amsmath") || settings.Env.Has("amssymb") {
		t.Errorf("Env = %v", settings.Env)
	}
	if settings.WriteTimeout != 30*time.Second || !settings.Enabled {
		t.Errorf("settings = %+v", settings)
	}
}

func TestConvert(t *testing.T) {
	h := NewServer(testSettings()).Handler()

	tests := []struct {
		name   string
		body   string
		output string
		errPfx string
	}{
		{"ok", `{"from":"native","to":"tex","text":"[ESub (EIdentifier \"x\") (ENumber \"2\")]"}`, "x_{2}", ""},
		{"defaults", `{"text":"[EIdentifier \"y\"]"}`, "y", ""},
		{"read error", `{"text":"[EBogus]"}`, "", "read_ast: "},
		{"write error", `{"text":"[EIdentifier \"\\99999999\"]"}`, "", "write_tex: "},
		{"plain env", `{"text":"[EFraction DisplayFrac (ENumber \"1\") (ENumber \"2\")]","envs":[]}`, `\frac{1}{2}`, ""},
		{"ams env", `{"text":"[EFraction DisplayFrac (ENumber \"1\") (ENumber \"2\")]"}`, `\dfrac{1}{2}`, ""},
		{"inline", `{"text":"[EText TextNormal \"if \", EIdentifier \"x\"]","inline":true}`, `if \(x\)`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/convert", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			resp := decode[ConvertResponse](t, rec)
			if resp.Output != tt.output {
				t.Errorf("output = %q, want %q", resp.Output, tt.output)
			}
			if tt.errPfx == "" && resp.Error != "" {
				t.Errorf("unexpected error %q", resp.Error)
			}
			if tt.errPfx != "" && !strings.HasPrefix(resp.Error, tt.errPfx) {
				t.Errorf("error = %q, want prefix %q", resp.Error, tt.errPfx)
			}
		})
	}
}

func TestConvert_BadRequests(t *testing.T) {
	h := NewServer(testSettings()).Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed", http.MethodPost, "/convert", `{"text":`, http.StatusBadRequest},
		{"bad from", http.MethodPost, "/convert", `{"from":"tex","text":"[]"}`, http.StatusBadRequest},
		{"bad to", http.MethodPost, "/convert", `{"to":"mathml","text":"[]"}`, http.StatusBadRequest},
		{"get", http.MethodGet, "/convert", "", http.StatusMethodNotAllowed},
		{"too large", http.MethodPost, "/convert", `{"text":"` + strings.Repeat("a", 5000) + `"}`, http.StatusRequestEntityTooLarge},
		{"health post", http.MethodPost, "/health", "", http.StatusMethodNotAllowed},
		{"batch item", http.MethodPost, "/convert/batch", `{"items":[{"text":"[]"},{"to":"svg"}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			resp := decode[errorResponse](t, rec)
			if resp.Error == "" || resp.RequestID == "" {
				t.Errorf("error response = %+v", resp)
			}
		})
	}
}

func TestBatch(t *testing.T) {
	h := NewServer(testSettings()).Handler()
	body := `{"items":[
		{"text":"[EIdentifier \"a\"]"},
		{"text":"[EOops]"},
		{"text":"[ESuper (EIdentifier \"b\") (ENumber \"2\")]"}
	]}`
	rec := post(t, h, "/convert/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[BatchResponse](t, rec)
	if len(resp.Results) != 3 {
		t.Fatalf("got %d results", len(resp.Results))
	}
	if resp.Results[0].Output != "a" || resp.Results[2].Output != "b^{2}" {
		t.Errorf("results = %+v", resp.Results)
	}
	if !strings.HasPrefix(resp.Results[1].Error, "read_ast: ") {
		t.Errorf("results[1] = %+v", resp.Results[1])
	}

	settings := testSettings()
	settings.MaxBatch = 2
	small := NewServer(settings).Handler()
	if rec := post(t, small, "/convert/batch", body); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("over-limit batch status = %d", rec.Code)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	h := NewServer(testSettings()).Handler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := `{"items":[{"text":"[EIdentifier \"a\"]"},{"text":"[EIdentifier \"b\"]"}]}`
	req := httptest.NewRequest(http.MethodPost, "/convert/batch", strings.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[errorResponse](t, rec)
	if !strings.HasPrefix(resp.Error, "batch abandoned: ") || resp.RequestID == "" {
		t.Errorf("error body = %+v", resp)
	}
}

func TestBatch_Gzip(t *testing.T) {
	settings := testSettings()
	settings.MaxBodyBytes = 1 << 20
	h := NewServer(settings).Handler()

	items := make([]ConvertRequest, 100)
	for i := range items {
		items[i] = ConvertRequest{Text: `[ESub (EIdentifier "x") (ENumber "2")]`}
	}
	buf, err := json.Marshal(BatchRequest{Items: items})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/convert/batch", bytes.NewReader(buf))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, headers = %v", rec.Header())
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gunzip: %v", err)
	}
	var resp BatchResponse
	if err := json.Unmarshal(plain, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 100 || resp.Results[99].Output != "x_{2}" {
		t.Errorf("unexpected results: %d", len(resp.Results))
	}
}

func TestStreamEndpoint(t *testing.T) {
	h := NewServer(testSettings()).Handler()
	var in bytes.Buffer
	w := stream.NewWriter(&in)
	w.WriteAST(1, 1, []byte(`[EIdentifier "x"]`))
	w.WriteFinal(1, 2, stream.KindAST, []byte(`[EBad]`))

	rec := post(t, h, "/convert/stream", in.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	frames, err := stream.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading frames: %v", err)
	}
	if len(frames) != 3 || frames[0].Kind != stream.KindTeX || frames[1].Kind != stream.KindErr || frames[2].Kind != stream.KindAck {
		t.Fatalf("frames = %+v", frames)
	}

	if rec := post(t, h, "/convert/stream", "not a frame\n"); rec.Code != http.StatusBadRequest {
		t.Errorf("garbage stream status = %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	h := NewServer(testSettings(), WithRequestIDs(func() string { return "generated" })).Handler()

	rec := post(t, h, "/convert", `{"text":"[]"}`)
	if got := rec.Header().Get(RequestIDHeader); got != "generated" {
		t.Errorf("generated ID = %q", got)
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"text":"[]"}`))
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("caller ID not kept: %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"text":"[]"}`))
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	NewServer(testSettings()).Handler().ServeHTTP(rec, req)
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("default ID is not a uuid: %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestServerLifecycle(t *testing.T) {
	t.Parallel()
	fixed := time.Unix(1730000000, 0).UTC()
	srv := NewServer(testSettings(), WithClock(func() time.Time { return fixed }))
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if srv.Status() != StatusStarting {
		t.Fatalf("status before start = %s", srv.Status())
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	resp, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != string(StatusReady) || health.Version != ProtocolVersion || len(health.Envs) == 0 {
		t.Errorf("health = %+v", health)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.Status() != StatusDraining || srv.Addr() != "" {
		t.Errorf("after shutdown: status %s addr %q", srv.Status(), srv.Addr())
	}
}

func TestServerDisabled(t *testing.T) {
	settings := testSettings()
	settings.Enabled = false
	if err := NewServer(settings).Start(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}
