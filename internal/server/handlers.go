package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/hyperjump/kaku/internal/config"
	"github.com/hyperjump/kaku/internal/generator"
	"github.com/hyperjump/kaku/internal/models"
	"go.uber.org/zap"
)

// DownloadFilename is the attachment name used by the download endpoint.
const DownloadFilename = "linkedin_post.txt"

type postRequest struct {
	Keywords string `json:"keywords"`
	PostType string `json:"post_type"`
	Length   string `json:"length"`
	Language string `json:"language"`
}

type downloadRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in postRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("generate request",
		zap.String("keywords", in.Keywords),
		zap.String("post_type", in.PostType),
		zap.String("length", in.Length),
		zap.String("language", in.Language),
	)
	post, err := s.current().GeneratePost(r.Context(), in.Keywords, in.PostType, in.Length, in.Language)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, post)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var in postRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	preview, err := s.current().PreviewPost(r.Context(), in.Keywords, in.PostType, in.Length, in.Language)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, preview)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var content string
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var in downloadRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		content = in.Content
	} else {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid form")
			return
		}
		content = r.PostForm.Get("content")
	}
	if strings.TrimSpace(content) == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": DownloadFilename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.AvailableOptions())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generator.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, generator.ErrNoSearchResults):
		return http.StatusNotFound
	case errors.Is(err, generator.ErrSearchFailed), errors.Is(err, generator.ErrGenerationExhausted):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
