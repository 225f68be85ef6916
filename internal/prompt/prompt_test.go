package prompt

import (
	"strings"
	"testing"

	"github.com/hyperjump/kaku/internal/models"
)

func sampleResult() *models.SearchResult {
	return &models.SearchResult{
		Query: "remote work productivity",
		Documents: []*models.Document{
			{ID: "a", Title: "Async by default", URL: "https://example.com/async", Author: "R. Lee", Text: "Teams that write things down ship faster."},
			{ID: "b", Title: "Focus time", URL: "https://example.com/focus", PublishedDate: "2024-03-01", Text: "Blocking calendar time reduces context switching."},
			{ID: "c", URL: "https://example.com/untitled", Text: "  Home office ergonomics matter.  "},
		},
	}
}

func TestBuild_allCombinations(t *testing.T) {
	result := sampleResult()
	for _, ln := range models.Lengths {
		for _, pt := range models.PostTypes {
			for _, lang := range models.Languages {
				req := &models.GenerationRequest{
					Keywords: "remote work productivity",
					PostType: pt,
					Length:   ln,
					Language: lang,
				}
				got, err := Build(req, result)
				if err != nil {
					t.Fatalf("Build(%s, %s, %s): %v", ln, pt, lang, err)
				}
				if !strings.Contains(got, "remote work productivity") {
					t.Errorf("%s/%s/%s: keywords missing", ln, pt, lang)
				}
				if !strings.Contains(got, string(lang)) {
					t.Errorf("%s/%s/%s: language missing", ln, pt, lang)
				}
				for i, d := range result.Documents {
					if !strings.Contains(got, FormatDocument(i+1, d)) {
						t.Errorf("%s/%s/%s: document %d not serialized", ln, pt, lang, i+1)
					}
				}
				again, _ := Build(req, result)
				if again != got {
					t.Errorf("%s/%s/%s: prompt is not deterministic", ln, pt, lang)
				}
			}
		}
	}
}

func TestBuild_lengthProfiles(t *testing.T) {
	tests := []struct {
		length models.Length
		want   string
	}{
		{models.LengthShort, "300-500 words"},
		{models.LengthStandard, "900-1100 words"},
		{models.LengthLong, "1800-2500 words"},
	}
	for _, tt := range tests {
		t.Run(string(tt.length), func(t *testing.T) {
			req := &models.GenerationRequest{Keywords: "k", PostType: models.PostTypeGeneral, Length: tt.length, Language: models.LanguageEnglish}
			got, err := Build(req, sampleResult())
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("prompt for %s missing %q", tt.length, tt.want)
			}
			if !strings.Contains(got, tt.length.Label()) {
				t.Errorf("prompt for %s missing label %q", tt.length, tt.length.Label())
			}
		})
	}
}

func TestBuild_fixedStructure(t *testing.T) {
	req := &models.GenerationRequest{Keywords: "k", PostType: models.PostTypeHowTo, Length: models.LengthShort, Language: models.LanguageSpanish}
	got, err := Build(req, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"senior content strategist",
		"hook", "title", "introduction", "core sections", "tips", "FAQ", "call-to-action",
		"active voice", "emojis", "hashtags", "cite",
		Guidance(models.PostTypeHowTo),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuild_nilRequest(t *testing.T) {
	if _, err := Build(nil, sampleResult()); err == nil {
		t.Error("expected error for nil request")
	}
}

func TestProfileFor(t *testing.T) {
	short, std, long := ProfileFor(models.LengthShort), ProfileFor(models.LengthStandard), ProfileFor(models.LengthLong)
	if !(short.MaxWords < std.MinWords && std.MaxWords < long.MinWords) {
		t.Errorf("word ranges should not overlap: %+v %+v %+v", short, std, long)
	}
	if !(short.MaxSections <= std.MinSections && std.MaxSections <= long.MinSections) {
		t.Errorf("section targets should grow with length")
	}
	if ProfileFor("bogus") != std {
		t.Error("unknown length should fall back to the default profile")
	}
}

func TestFormatDocuments(t *testing.T) {
	got := FormatDocuments(sampleResult().Documents)
	if !strings.HasPrefix(got, "[1] Async by default\n") {
		t.Errorf("unexpected first entry:\n%s", got)
	}
	if !strings.Contains(got, "[3] (untitled)\n") {
		t.Errorf("untitled document should get a placeholder:\n%s", got)
	}
	if !strings.Contains(got, "Content: Home office ergonomics matter.\n") {
		t.Errorf("document text should be trimmed:\n%s", got)
	}
	if FormatDocuments(nil) != "(no results)\n" {
		t.Error("empty document list placeholder")
	}
}
