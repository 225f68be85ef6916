package prompt

import (
	"testing"

	"github.com/hyperjump/kaku/internal/models"
)

func BenchmarkBuild(b *testing.B) {
	req := &models.GenerationRequest{
		Keywords: "remote work productivity",
		PostType: models.PostTypeListicle,
		Length:   models.LengthLong,
		Language: models.LanguageEnglish,
	}
	result := sampleResult()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Build(req, result)
	}
}

func BenchmarkFormatDocuments(b *testing.B) {
	docs := sampleResult().Documents
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = FormatDocuments(docs)
	}
}
