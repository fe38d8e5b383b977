package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mikey/contact-guard/internal/content"
	"go.uber.org/zap"
)

const msgContentUnavailable = "コンテンツを読み込めませんでした"

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	html, err := s.content.About()
	if err != nil {
		s.contentError(w, content.AboutFile, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.serveJSON(w, content.ResumeFile, s.content.Resume)
}

func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	s.serveJSON(w, content.SkillsFile, s.content.Skills)
}

func (s *Server) serveJSON(w http.ResponseWriter, name string, load func() (json.RawMessage, error)) {
	raw, err := load()
	if err != nil {
		s.contentError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) contentError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, content.ErrNotFound) {
		s.logger.Warn("Content file missing", zap.String("file", name))
		writeError(w, http.StatusNotFound, msgContentUnavailable)
		return
	}
	s.logger.Error("Failed to load content", zap.String("file", name), zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgContentUnavailable)
}
