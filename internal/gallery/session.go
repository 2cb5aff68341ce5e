package gallery

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"pixgenie/internal/generator"
	"pixgenie/internal/storage"
	"pixgenie/internal/unsplash"
)

const MsgContentRequired = "Blog content is required"

var (
	ErrBusy            = errors.New("a generation is already in progress")
	ErrContentRequired = errors.New(MsgContentRequired)
)

type Generator interface {
	Generate(ctx context.Context, content string) ([]unsplash.Photo, error)
}

// State is a snapshot of what a session shows.
type State struct {
	Content           string
	ValidationMessage string
	Images            []unsplash.Photo
	Error             string
	Loading           bool
	Selected          *unsplash.Photo
}

// Session holds one user's input, result gallery and preview selection.
// At most one generation cycle runs at a time.
type Session struct {
	generator  Generator
	downloader *Downloader

	busy  atomic.Bool
	mu    sync.Mutex
	state State
}

func NewSession(gen Generator, downloader *Downloader) *Session {
	return &Session{
		generator:  gen,
		downloader: downloader,
	}
}

func (s *Session) SetContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Content = content
}

// Submit validates the current content and runs a generation cycle. On
// failure the previous images stay and the error message is set.
func (s *Session) Submit(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	s.state.ValidationMessage = ""
	s.state.Error = ""
	content := s.state.Content
	if strings.TrimSpace(content) == "" {
		s.state.ValidationMessage = MsgContentRequired
		s.mu.Unlock()
		return ErrContentRequired
	}
	s.state.Loading = true
	s.mu.Unlock()

	photos, err := s.generator.Generate(ctx, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		s.state.Error = generator.Message(err)
		return err
	}
	s.state.Images = photos
	return nil
}

func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	snapshot.Images = append([]unsplash.Photo(nil), s.state.Images...)
	if s.state.Selected != nil {
		selected := *s.state.Selected
		snapshot.Selected = &selected
	}
	return snapshot
}

// Image returns the gallery entry at index.
func (s *Session) Image(index int) (unsplash.Photo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.state.Images) {
		return unsplash.Photo{}, false
	}
	return s.state.Images[index], true
}

// OpenPreview selects photo, replacing any earlier selection.
func (s *Session) OpenPreview(photo unsplash.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Selected = &photo
}

func (s *Session) PreviewURL() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Selected == nil {
		return "", false
	}
	return s.state.Selected.URLs.Regular, true
}

func (s *Session) ClosePreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Selected = nil
}

// Download tracks and fetches photo, then stores it in sink as
// <slug>.jpg. Failures are logged and leave the session untouched.
func (s *Session) Download(ctx context.Context, photo unsplash.Photo, sink storage.Sink) (string, error) {
	name := FileName(photo)

	data, err := s.downloader.Fetch(ctx, photo)
	if err != nil {
		slog.Error("Download failed", "photo", photo.ID, "error", err)
		return "", err
	}

	location, err := sink.Save(ctx, name, data)
	if err != nil {
		slog.Error("Saving download failed", "photo", photo.ID, "name", name, "error", err)
		return "", err
	}

	slog.Info("Downloaded image", "photo", photo.ID, "location", location, "bytes", len(data))
	return location, nil
}

func (s *Session) Downloader() *Downloader {
	return s.downloader
}
