package insight

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hpungsan/murmur/internal/config"
)

const modelReply = `{"summary":"Users find the app slow.","clusters":[{"title":"Performance","examples":["The app is slow","Slow loading times"]}]}`

var wantRemote = &Result{
	Summary:  "Users find the app slow.",
	Clusters: []Cluster{{Title: "Performance", Examples: []string{"The app is slow", "Slow loading times"}}},
}

func TestOpenAIProvider(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		content, _ := json.Marshal("```json\n" + modelReply + "\n```")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"gpt-3.5-turbo",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(content) + `}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "gpt-3.5-turbo", srv.URL+"/", 1000)
	got, err := p.Summarize(t.Context(), "prompt")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if diff := cmp.Diff(wantRemote, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}

	if body["model"] != "gpt-3.5-turbo" {
		t.Errorf("model = %v", body["model"])
	}
	if body["max_tokens"] != float64(1000) {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
	if body["temperature"] != 0.3 {
		t.Errorf("temperature = %v", body["temperature"])
	}
}

func TestAnthropicProvider(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("X-Api-Key = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		text, _ := json.Marshal(modelReply)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-haiku-20240307",` +
			`"content":[{"type":"text","text":` + string(text) + `}],"stop_reason":"end_turn",` +
			`"usage":{"input_tokens":10,"output_tokens":20}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", "claude-3-haiku-20240307", srv.URL+"/", 1000)
	got, err := p.Summarize(t.Context(), "prompt")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if diff := cmp.Diff(wantRemote, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
	if body["max_tokens"] != float64(1000) {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
}

func TestGeminiProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gemini-1.5-flash:generateContent") {
			http.NotFound(w, r)
			return
		}
		text, _ := json.Marshal(modelReply)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":` + string(text) + `}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(t.Context(), "test-key", "gemini-1.5-flash", srv.URL+"/", 1000)
	if err != nil {
		t.Fatalf("NewGeminiProvider() error = %v", err)
	}
	got, err := p.Summarize(t.Context(), "prompt")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if diff := cmp.Diff(wantRemote, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_BothProvidersServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"internal error","type":"server_error"}}`))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.AIAPIKey = "test-key"
	cfg.OpenAIBaseURL = srv.URL + "/"
	cfg.AnthropicBaseURL = srv.URL + "/"

	e, err := NewEngineFromConfig(t.Context(), cfg, nil)
	if err != nil {
		t.Fatalf("NewEngineFromConfig() error = %v", err)
	}

	report := e.GenerateReport(t.Context(), sampleTexts)

	if report.Source != SourceLocal {
		t.Errorf("Source = %q, want local", report.Source)
	}
	if diff := cmp.Diff(Local(sampleTexts), report.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if len(report.Attempts) != 2 {
		t.Errorf("Attempts = %+v, want 2", report.Attempts)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hit %d times, want 2 (no SDK retries)", n)
	}
}

func TestEngine_MalformedReplyFallsThrough(t *testing.T) {
	openaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":0,"model":"m",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"summary\":\"\",\"clusters\":[]}"}}]}`))
	}))
	defer openaiSrv.Close()

	anthropicSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text, _ := json.Marshal(modelReply)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"m",` +
			`"content":[{"type":"text","text":` + string(text) + `}],"stop_reason":"end_turn",` +
			`"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer anthropicSrv.Close()

	cfg := config.DefaultConfig()
	cfg.AIAPIKey = "test-key"
	cfg.OpenAIBaseURL = openaiSrv.URL + "/"
	cfg.AnthropicBaseURL = anthropicSrv.URL + "/"

	e, err := NewEngineFromConfig(t.Context(), cfg, nil)
	if err != nil {
		t.Fatalf("NewEngineFromConfig() error = %v", err)
	}

	report := e.GenerateReport(t.Context(), sampleTexts)

	if report.Source != config.ProviderAnthropic {
		t.Errorf("Source = %q, want anthropic", report.Source)
	}
	if diff := cmp.Diff(*wantRemote, report.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestProvidersFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{"no credentials", func(*config.Config) {}, []string{}},
		{"shared key", func(c *config.Config) { c.AIAPIKey = "k" }, []string{"openai", "anthropic"}},
		{"specific key only", func(c *config.Config) { c.AnthropicAPIKey = "k" }, []string{"anthropic"}},
		{"custom order", func(c *config.Config) {
			c.AIAPIKey = "k"
			c.InsightProviders = []string{"gemini", "openai"}
		}, []string{"gemini", "openai"}},
		{"empty chain", func(c *config.Config) {
			c.AIAPIKey = "k"
			c.InsightProviders = nil
		}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			e, err := NewEngineFromConfig(t.Context(), cfg, nil)
			if err != nil {
				t.Fatalf("NewEngineFromConfig() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, e.Providers()); diff != "" {
				t.Errorf("Providers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProvidersFromConfig_Unknown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AIAPIKey = "k"
	cfg.InsightProviders = []string{"mystery"}

	if _, err := ProvidersFromConfig(t.Context(), cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
