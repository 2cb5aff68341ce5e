package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pixgenie/internal/gallery"
	"pixgenie/internal/unsplash"
)

const maxContentBytes = 1 << 20

type indexPage struct {
	gallery.State
	Busy bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var page indexPage
	if session, ok := s.sessions.lookup(r); ok {
		page = indexPage{State: session.State(), Busy: session.Busy()}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, "index.html", page); err != nil {
		slog.Error("Failed to render page", "error", err)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.get(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxContentBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	session.SetContent(r.PostFormValue("content"))

	if err := session.Submit(r.Context()); err != nil {
		switch {
		case errors.Is(err, gallery.ErrBusy):
			slog.Debug("Generation already running")
		case errors.Is(err, gallery.ErrContentRequired):
		default:
			slog.Warn("Generation failed", "error", err)
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	photo, ok := s.photoAt(session, r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session.OpenPreview(photo)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClosePreview(w http.ResponseWriter, r *http.Request) {
	if session, ok := s.sessions.lookup(r); ok {
		session.ClosePreview()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDownload streams the photo as an attachment. Failures are logged and
// send the browser back to the gallery.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	photo, ok := s.photoAt(session, r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, err := session.Downloader().Fetch(r.Context(), photo)
	if err != nil {
		slog.Error("Download failed", "photo", photo.ID, "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gallery.FileName(photo)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Debug("Download interrupted", "photo", photo.ID, "error", err)
	}
}

func (s *Server) photoAt(session *gallery.Session, r *http.Request) (unsplash.Photo, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return unsplash.Photo{}, false
	}
	return session.Image(index)
}

func altText(photo unsplash.Photo) string {
	if photo.AltDescription != "" {
		return photo.AltDescription
	}
	if photo.Description != "" {
		return photo.Description
	}
	return "Generated image"
}
