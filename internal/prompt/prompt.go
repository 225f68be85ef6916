// Package prompt assembles the generation prompt from a request and its search results.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/hyperjump/kaku/internal/models"
)

// SystemPrompt is the fixed system turn sent ahead of every assembled prompt.
const SystemPrompt = "You are a helpful assistant."

// LengthProfile is the structural target for one Length.
type LengthProfile struct {
	MinWords    int
	MaxWords    int
	MinSections int
	MaxSections int
	Depth       string
}

// WordRange renders the word target, e.g. "300-500 words".
func (p LengthProfile) WordRange() string {
	return fmt.Sprintf("%d-%d words", p.MinWords, p.MaxWords)
}

// SectionRange renders the section target, e.g. "2-3 core sections".
func (p LengthProfile) SectionRange() string {
	return fmt.Sprintf("%d-%d core sections", p.MinSections, p.MaxSections)
}

var profiles = map[models.Length]LengthProfile{
	models.LengthShort: {
		MinWords: 300, MaxWords: 500,
		MinSections: 2, MaxSections: 3,
		Depth: "Keep each section tight: one key idea, one supporting fact and one practical takeaway.",
	},
	models.LengthStandard: {
		MinWords: 900, MaxWords: 1100,
		MinSections: 4, MaxSections: 5,
		Depth: "Develop each section with an explanation, an example drawn from the search results and an actionable step.",
	},
	models.LengthLong: {
		MinWords: 1800, MaxWords: 2500,
		MinSections: 6, MaxSections: 8,
		Depth: "Go deep in every section with data points, cited sources, real-world examples and sub-headings where they help scanning.",
	},
}

// ProfileFor maps a length to its profile. Unknown lengths get the default profile.
func ProfileFor(l models.Length) LengthProfile {
	if p, ok := profiles[l]; ok {
		return p
	}
	return profiles[models.DefaultLength]
}

var postTypeGuidance = map[models.PostType]string{
	models.PostTypeGeneral:      "Write an informative, engaging post that gives a balanced overview of the topic.",
	models.PostTypeHowTo:        "Structure the core sections as numbered, sequential steps the reader can follow.",
	models.PostTypePoll:         "Frame the topic around a question and end with a clear poll of 3-4 answer options.",
	models.PostTypeListicle:     "Present the core sections as a numbered list of distinct, skimmable items.",
	models.PostTypeRealityCheck: "Contrast common assumptions with what the evidence in the search results actually shows.",
	models.PostTypeJob:          "Write it as a job post: role summary, responsibilities, requirements and how to apply.",
	models.PostTypeFAQ:          "Organize the core sections as questions and concise, authoritative answers.",
	models.PostTypeCheatSheet:   "Condense the material into checklists and quick-reference bullet points.",
}

// Guidance returns the stylistic framing for a post type.
func Guidance(t models.PostType) string {
	if g, ok := postTypeGuidance[t]; ok {
		return g
	}
	return postTypeGuidance[models.DefaultPostType]
}

const promptText = `You are a senior content strategist and an experienced LinkedIn content writer.
I will give you my post keywords and the web search results collected for them.
Your task is to write a LinkedIn post of type "{{.PostType}}" using the keywords and the search results.

Post keywords: '{{.Keywords}}'

Search results:
{{.Results}}
Length and depth:
- Target length: {{.Profile.WordRange}} ({{.LengthLabel}}).
- Cover {{.Profile.SectionRange}}.
- {{.Profile.Depth}}

Post type:
- {{.Guidance}}

Structure the post as follows:
1. A hook: one or two opening lines that stop the scroll.
2. A title.
3. A short introduction that states why the topic matters now.
4. The core sections.
5. Practical tips the reader can apply today.
6. An FAQ section, if the topic raises common questions.
7. A conclusion with a clear call-to-action.

Style:
- Use active voice and short, simple sentences for a professional audience.
- Demonstrate experience, expertise, authoritativeness and trustworthiness.
- Include the most important facts from the search results and cite their sources.
- Use relevant emojis sparingly to aid scanning.
- End with 3-5 relevant hashtags.

Language: it is mandatory to write the entire post in {{.Language}}.
`

var promptTemplate = template.Must(template.New("prompt").Parse(promptText))

type promptData struct {
	Keywords    string
	PostType    models.PostType
	LengthLabel string
	Language    models.Language
	Profile     LengthProfile
	Guidance    string
	Results     string
}

// Build renders the user prompt for req from the search results. Identical
// inputs always render identical text.
func Build(req *models.GenerationRequest, result *models.SearchResult) (string, error) {
	if req == nil {
		return "", fmt.Errorf("build prompt: nil request")
	}
	var docs []*models.Document
	if result != nil {
		docs = result.Documents
	}
	data := promptData{
		Keywords:    req.Keywords,
		PostType:    req.PostType,
		LengthLabel: req.Length.Label(),
		Language:    req.Language,
		Profile:     ProfileFor(req.Length),
		Guidance:    Guidance(req.PostType),
		Results:     FormatDocuments(docs),
	}
	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	return sb.String(), nil
}
