package server

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/hyperjump/kaku/internal/config"
	"github.com/hyperjump/kaku/internal/generator"
	"github.com/hyperjump/kaku/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Options  models.Options
	Keywords string
	PostType string
	Length   string
	Language string
	Post     *models.GeneratedPost
	Error    string
}

func newPageData() pageData {
	opts := models.AvailableOptions()
	return pageData{
		Options:  opts,
		PostType: opts.DefaultPostType,
		Length:   opts.DefaultLength,
		Language: opts.DefaultLanguage,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, newPageData())
}

func (s *Server) handleGenerateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		data := newPageData()
		data.Error = "Could not read the form."
		s.renderPage(w, http.StatusBadRequest, data)
		return
	}
	data := newPageData()
	data.Keywords = r.PostForm.Get("keywords")
	if v := r.PostForm.Get("post_type"); v != "" {
		data.PostType = v
	}
	if v := r.PostForm.Get("length"); v != "" {
		data.Length = v
	}
	if v := r.PostForm.Get("language"); v != "" {
		data.Language = v
	}

	post, err := s.current().GeneratePost(r.Context(), data.Keywords, data.PostType, data.Length, data.Language)
	if err != nil {
		data.Error = userMessage(err)
		s.renderPage(w, statusFor(err), data)
		return
	}
	data.Post = post
	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("failed to write page", zap.Error(err))
	}
}

func userMessage(err error) string {
	var credErr *config.CredentialError
	switch {
	case errors.Is(err, models.ErrEmptyKeywords):
		return "Please enter keywords to write a post about."
	case errors.Is(err, generator.ErrInvalidRequest):
		return "Please choose one of the listed options."
	case errors.As(err, &credErr):
		return "The " + credErr.Service + " service is not configured. Set " + credErr.Env + " and try again."
	case errors.Is(err, generator.ErrNoSearchResults):
		return "No search results were found for these keywords. Try broader keywords."
	case errors.Is(err, generator.ErrSearchFailed):
		return "The web search failed. Please try again shortly."
	case errors.Is(err, generator.ErrGenerationExhausted):
		return "Failed to generate the post after several attempts. Please try again later."
	default:
		return "Something went wrong while generating the post."
	}
}
