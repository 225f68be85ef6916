package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/kaku/internal/config"
	"github.com/hyperjump/kaku/internal/llm"
	"github.com/hyperjump/kaku/internal/models"
	"github.com/hyperjump/kaku/internal/retry"
	"github.com/hyperjump/kaku/internal/search"
	"go.uber.org/zap"
)

func threeDocs(query string) *models.SearchResult {
	return &models.SearchResult{
		Query: query,
		Documents: []*models.Document{
			{ID: "1", Title: "Async by default", URL: "https://example.com/1", Text: "Write things down."},
			{ID: "2", Title: "Focus blocks", URL: "https://example.com/2", Text: "Protect deep work."},
			{ID: "3", Title: "Tools", URL: "https://example.com/3", Text: "Fewer, better tools."},
		},
	}
}

type fakeSearcher struct {
	calls  int
	result *models.SearchResult
	err    error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeCompleter fails the first failures calls, then answers with text.
type fakeCompleter struct {
	calls    int
	failures int
	text     string
	last     []llm.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error) {
	f.calls++
	f.last = messages
	if f.calls <= f.failures {
		return nil, errors.New("service unavailable")
	}
	return &llm.Completion{Content: f.text}, nil
}

func newTestGenerator(s search.Searcher, c llm.Completer, opts ...Option) *Generator {
	opts = append([]Option{WithPolicy(retry.Default().NoWait()), WithLogger(zap.NewNop()), WithModel("gpt-3.5-turbo")}, opts...)
	return New(s, c, opts...)
}

func TestGeneratePost_endToEnd(t *testing.T) {
	s := &fakeSearcher{result: threeDocs("remote work productivity")}
	c := &fakeCompleter{text: "🚀 Remote work, done right. #RemoteWork"}
	generatedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	g := newTestGenerator(s, c, WithClock(func() time.Time { return generatedAt }))

	post, err := g.GeneratePost(context.Background(), "remote work productivity", "How-to Guides", "Short Form", "English")
	if err != nil {
		t.Fatal(err)
	}
	if post.Content == "" {
		t.Fatal("expected non-empty post")
	}
	if c.calls != 1 || post.Attempts != 1 {
		t.Errorf("calls=%d attempts=%d, want 1", c.calls, post.Attempts)
	}
	if len(c.last) != 2 {
		t.Fatalf("expected exactly 2 messages, got %d", len(c.last))
	}
	if c.last[0].Role != llm.RoleSystem || c.last[0].Content != "You are a helpful assistant." {
		t.Errorf("unexpected system message: %+v", c.last[0])
	}
	if c.last[1].Role != llm.RoleUser || !strings.Contains(c.last[1].Content, "remote work productivity") {
		t.Errorf("user message should carry the keywords: %+v", c.last[1])
	}
	if post.Request.PostType != models.PostTypeHowTo || post.Request.Length != models.LengthShort {
		t.Errorf("request not normalized: %+v", post.Request)
	}
	if len(post.Sources) != 3 || post.Sources[0].URL != "https://example.com/1" {
		t.Errorf("unexpected sources: %+v", post.Sources)
	}
	if post.RequestID == "" || post.RequestID != post.Request.ID {
		t.Errorf("request id not propagated: %q vs %q", post.RequestID, post.Request.ID)
	}
	if post.Model != "gpt-3.5-turbo" {
		t.Errorf("model = %q", post.Model)
	}
	if !post.GeneratedAt.Equal(generatedAt) || post.GeneratedAt.Location() != time.UTC {
		t.Errorf("generated_at = %v, want %v in UTC", post.GeneratedAt, generatedAt)
	}
}

func TestGenerate_searchErrorSkipsGeneration(t *testing.T) {
	transport := errors.New("dial tcp: connection refused")
	s := &fakeSearcher{err: transport}
	c := &fakeCompleter{text: "never"}
	g := newTestGenerator(s, c)

	post, err := g.GeneratePost(context.Background(), "remote work productivity", "How-to Guides", "Short Form", "English")
	if post != nil {
		t.Errorf("expected no post, got %+v", post)
	}
	if !errors.Is(err, ErrSearchFailed) || !errors.Is(err, transport) {
		t.Errorf("expected ErrSearchFailed wrapping the cause, got %v", err)
	}
	if c.calls != 0 {
		t.Errorf("generation must not be called, got %d calls", c.calls)
	}
}

func TestGenerate_emptySearchSkipsGeneration(t *testing.T) {
	for name, res := range map[string]*models.SearchResult{
		"nil result":   nil,
		"no documents": {Query: "q", Documents: []*models.Document{}},
	} {
		t.Run(name, func(t *testing.T) {
			c := &fakeCompleter{text: "never"}
			g := newTestGenerator(&fakeSearcher{result: res}, c)
			post, err := g.GeneratePost(context.Background(), "golang", "", "", "")
			if post != nil || !errors.Is(err, ErrNoSearchResults) {
				t.Errorf("got post=%v err=%v, want ErrNoSearchResults", post, err)
			}
			if errors.Is(err, ErrSearchFailed) {
				t.Error("empty search should be distinguishable from a failed search")
			}
			if c.calls != 0 {
				t.Errorf("generation must not be called, got %d calls", c.calls)
			}
		})
	}
}

func TestGenerate_missingSearchCredential(t *testing.T) {
	s := search.NewExaClient(config.SearchConfig{BaseURL: "http://127.0.0.1:1"})
	c := &fakeCompleter{text: "never"}
	_, err := newTestGenerator(s, c).GeneratePost(context.Background(), "golang", "", "", "")
	if !errors.Is(err, ErrSearchFailed) || !errors.Is(err, config.ErrMissingCredential) {
		t.Errorf("expected search failure with missing credential, got %v", err)
	}
	if c.calls != 0 {
		t.Errorf("generation must not be called, got %d calls", c.calls)
	}
}

func TestGenerate_retryExhausted(t *testing.T) {
	c := &fakeCompleter{failures: 100}
	var waits []time.Duration
	policy := retry.Default()
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	g := newTestGenerator(&fakeSearcher{result: threeDocs("q")}, c, WithPolicy(policy))

	post, err := g.GeneratePost(context.Background(), "golang", "", "", "")
	if post != nil {
		t.Errorf("expected no post, got %+v", post)
	}
	if !errors.Is(err, ErrGenerationExhausted) || !errors.Is(err, retry.ErrExhausted) {
		t.Errorf("expected ErrGenerationExhausted, got %v", err)
	}
	if c.calls != 6 {
		t.Errorf("expected exactly 6 attempts, got %d", c.calls)
	}
	if len(waits) != 5 {
		t.Fatalf("expected 5 waits, got %d", len(waits))
	}
	for i, w := range waits {
		if w < time.Second || w > retry.ExponentialCeiling(i+1, time.Second, time.Minute) {
			t.Errorf("wait %d = %v out of bounds", i+1, w)
		}
	}
}

func TestGenerate_retryRecovers(t *testing.T) {
	c := &fakeCompleter{failures: 3, text: "fourth time lucky"}
	var retried []int
	policy := retry.Default().NoWait()
	policy.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }
	g := newTestGenerator(&fakeSearcher{result: threeDocs("q")}, c, WithPolicy(policy))

	post, err := g.GeneratePost(context.Background(), "golang", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if post.Content != "fourth time lucky" || post.Attempts != 4 {
		t.Errorf("got %q after %d attempts", post.Content, post.Attempts)
	}
	if c.calls != 4 {
		t.Errorf("no attempts after success expected, got %d calls", c.calls)
	}
	if len(retried) != 3 {
		t.Errorf("caller OnRetry hook should still run, got %v", retried)
	}
}

func TestGenerate_invalidRequest(t *testing.T) {
	s := &fakeSearcher{result: threeDocs("q")}
	g := newTestGenerator(s, &fakeCompleter{text: "x"})
	tests := []struct {
		name                           string
		keywords, pt, length, language string
		wantEmpty                      bool
	}{
		{name: "empty keywords", keywords: "  ", wantEmpty: true},
		{name: "unknown post type", keywords: "k", pt: "Sonnets"},
		{name: "unknown length", keywords: "k", length: "epic"},
		{name: "unknown language", keywords: "k", language: "Klingon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.GeneratePost(context.Background(), tt.keywords, tt.pt, tt.length, tt.language)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
			if tt.wantEmpty && !errors.Is(err, models.ErrEmptyKeywords) {
				t.Errorf("expected ErrEmptyKeywords, got %v", err)
			}
		})
	}
	if s.calls != 0 {
		t.Errorf("invalid requests must not reach search, got %d calls", s.calls)
	}
	if _, err := g.Generate(context.Background(), nil); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("nil request: %v", err)
	}
}

func TestGenerate_contextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := llm.CompleterFunc(func(context.Context, []llm.Message) (*llm.Completion, error) {
		cancel()
		return nil, errors.New("boom")
	})
	policy := retry.Default()
	policy.Backoff = func(int) time.Duration { return time.Hour }
	g := newTestGenerator(&fakeSearcher{result: threeDocs("q")}, c, WithPolicy(policy))

	_, err := g.GeneratePost(ctx, "golang", "", "", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrGenerationExhausted) {
		t.Error("cancellation is not exhaustion")
	}
}

func TestPreview(t *testing.T) {
	c := &fakeCompleter{text: "x"}
	g := newTestGenerator(&fakeSearcher{result: threeDocs("q")}, c)
	req := &models.GenerationRequest{Keywords: "  remote work productivity ", Length: "Long Form"}

	p, err := g.Preview(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if c.calls != 0 {
		t.Error("preview must not call the completion service")
	}
	if p.SystemPrompt != "You are a helpful assistant." || !strings.Contains(p.Prompt, "remote work productivity") {
		t.Errorf("unexpected preview: %+v", p)
	}
	if p.Request.Length != models.LengthLong || p.Request.Language != models.LanguageEnglish {
		t.Errorf("preview request not normalized: %+v", p.Request)
	}
	if req.Keywords != "  remote work productivity " || req.ID != "" {
		t.Error("Preview must not modify the caller's request")
	}

	again, err := g.PreviewPost(context.Background(), "remote work productivity", "", "long", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.Prompt != p.Prompt {
		t.Error("identical requests should produce identical prompts")
	}
}

func TestFromConfig_endToEnd(t *testing.T) {
	var searchCalls, completionCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			searchCalls.Add(1)
			_, _ = w.Write([]byte(`{"results":[{"id":"1","title":"T","url":"https://example.com","text":"body"}]}`))
		case "/chat/completions":
			completionCalls.Add(1)
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" post "}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := &config.Config{
		Search:     config.SearchConfig{BaseURL: srv.URL, APIKey: "exa"},
		Generation: config.GenerationConfig{BaseURL: srv.URL, APIKey: "sk"},
	}
	config.ApplyDefaults(cfg)

	post, err := FromConfig(cfg, zap.NewNop()).GeneratePost(context.Background(), "golang", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	// The response names no model, so the configured one is recorded.
	if post.Content != "post" || post.Model != config.DefaultModel {
		t.Errorf("unexpected post: %+v", post)
	}
	if searchCalls.Load() != 1 || completionCalls.Load() != 1 {
		t.Errorf("calls: search=%d completion=%d", searchCalls.Load(), completionCalls.Load())
	}
}
