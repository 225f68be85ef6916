// Package models defines the request and result values that flow through a post generation.
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyKeywords is returned when a request has no keywords after trimming.
var ErrEmptyKeywords = errors.New("keywords cannot be empty")

// ErrUnknownOption is wrapped by the Parse functions for values outside the supported set.
var ErrUnknownOption = errors.New("unknown option")

// PostType is the presentation style of the generated post.
type PostType string

const (
	PostTypeGeneral      PostType = "General"
	PostTypeHowTo        PostType = "How-to Guides"
	PostTypePoll         PostType = "Polls"
	PostTypeListicle     PostType = "Listicles"
	PostTypeRealityCheck PostType = "Reality Check Posts"
	PostTypeJob          PostType = "Job Posts"
	PostTypeFAQ          PostType = "FAQs"
	PostTypeCheatSheet   PostType = "Checklists/Cheat Sheets"
)

// DefaultPostType is used when the caller does not choose a post type.
const DefaultPostType = PostTypeGeneral

// PostTypes lists the supported post types in display order.
var PostTypes = []PostType{
	PostTypeGeneral,
	PostTypeHowTo,
	PostTypePoll,
	PostTypeListicle,
	PostTypeRealityCheck,
	PostTypeJob,
	PostTypeFAQ,
	PostTypeCheatSheet,
}

// Length selects one of three structural profiles for the post.
type Length string

const (
	LengthShort    Length = "short"
	LengthStandard Length = "standard"
	LengthLong     Length = "long"
)

// DefaultLength matches the first entry of the length selector.
const DefaultLength = LengthStandard

// Lengths lists the supported lengths in display order.
var Lengths = []Length{LengthStandard, LengthLong, LengthShort}

var lengthLabels = map[Length]string{
	LengthShort:    "Short Form",
	LengthStandard: "1000 words",
	LengthLong:     "Long Form",
}

// Label returns the human-readable name shown in selectors.
func (l Length) Label() string {
	if label, ok := lengthLabels[l]; ok {
		return label
	}
	return string(l)
}

// Language is the mandatory output language of the post.
type Language string

const (
	LanguageEnglish    Language = "English"
	LanguageVietnamese Language = "Vietnamese"
	LanguageChinese    Language = "Chinese"
	LanguageHindi      Language = "Hindi"
	LanguageSpanish    Language = "Spanish"
)

const DefaultLanguage = LanguageEnglish

// Languages lists the supported output languages in display order.
var Languages = []Language{
	LanguageEnglish,
	LanguageVietnamese,
	LanguageChinese,
	LanguageHindi,
	LanguageSpanish,
}

// ParsePostType resolves s case-insensitively. An empty string yields the default.
func ParsePostType(s string) (PostType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPostType, nil
	}
	for _, p := range PostTypes {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: post type %q", ErrUnknownOption, s)
}

// ParseLength accepts either the canonical value ("short") or its label ("Short Form").
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLength, nil
	}
	for _, l := range Lengths {
		if strings.EqualFold(s, string(l)) || strings.EqualFold(s, l.Label()) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: length %q", ErrUnknownOption, s)
}

// ParseLanguage resolves s case-insensitively. An empty string yields the default.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLanguage, nil
	}
	for _, l := range Languages {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: language %q", ErrUnknownOption, s)
}

// GenerationRequest is created once per user action and consumed immediately.
type GenerationRequest struct {
	ID       string   `json:"request_id,omitempty"`
	Keywords string   `json:"keywords"`
	PostType PostType `json:"post_type,omitempty"`
	Length   Length   `json:"length,omitempty"`
	Language Language `json:"language,omitempty"`
}

// NewGenerationRequest parses the four caller-facing strings into a request.
// Enum fields accept canonical values or display labels; empty values take defaults.
func NewGenerationRequest(keywords, postType, length, language string) (*GenerationRequest, error) {
	pt, err := ParsePostType(postType)
	if err != nil {
		return nil, err
	}
	ln, err := ParseLength(length)
	if err != nil {
		return nil, err
	}
	lang, err := ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	req := &GenerationRequest{
		Keywords: keywords,
		PostType: pt,
		Length:   ln,
		Language: lang,
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Normalize trims the keywords, resolves labels to canonical values, fills
// defaults for unset enum fields and assigns a request ID if missing.
func (r *GenerationRequest) Normalize() {
	r.Keywords = strings.TrimSpace(r.Keywords)
	if pt, err := ParsePostType(string(r.PostType)); err == nil {
		r.PostType = pt
	}
	if ln, err := ParseLength(string(r.Length)); err == nil {
		r.Length = ln
	}
	if lang, err := ParseLanguage(string(r.Language)); err == nil {
		r.Language = lang
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
}

// Validate reports whether the request may be dispatched.
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Keywords) == "" {
		return ErrEmptyKeywords
	}
	if _, err := ParsePostType(string(r.PostType)); err != nil {
		return err
	}
	if _, err := ParseLength(string(r.Length)); err != nil {
		return err
	}
	if _, err := ParseLanguage(string(r.Language)); err != nil {
		return err
	}
	return nil
}
