package app

import (
	"pixgenie/internal/gallery"
	"pixgenie/internal/generator"
	"pixgenie/internal/llm"
	"pixgenie/internal/unsplash"
	"pixgenie/pkg/config"
)

type Service struct {
	cfg        *config.Config
	generator  *generator.Generator
	unsplash   *unsplash.Client
	downloader *gallery.Downloader
	extractor  llm.KeywordExtractor
}

type ServiceOptions struct {
	Config     *config.Config
	Generator  *generator.Generator
	Unsplash   *unsplash.Client
	Downloader *gallery.Downloader
	Extractor  llm.KeywordExtractor
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:        opts.Config,
		generator:  opts.Generator,
		unsplash:   opts.Unsplash,
		downloader: opts.Downloader,
		extractor:  opts.Extractor,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Generator() *generator.Generator {
	return s.generator
}

func (s *Service) Unsplash() *unsplash.Client {
	return s.unsplash
}

func (s *Service) Downloader() *gallery.Downloader {
	return s.downloader
}

// Extractor is nil when no Groq key is configured.
func (s *Service) Extractor() llm.KeywordExtractor {
	return s.extractor
}

// NewSession starts an empty gallery session sharing the service's clients.
func (s *Service) NewSession() *gallery.Session {
	return gallery.NewSession(s.generator, s.downloader)
}
