package app

import (
	"log/slog"

	"pixgenie/internal/gallery"
	"pixgenie/internal/generator"
	"pixgenie/internal/keywords"
	"pixgenie/internal/llm"
	"pixgenie/internal/llm/groq"
	"pixgenie/internal/unsplash"
	"pixgenie/pkg/config"
	"pixgenie/pkg/prompts"
)

func BuildService(cfg *config.Config) (*Service, error) {
	unsplashClient := unsplash.NewClient(unsplash.Config{
		AccessKey: cfg.UnsplashAccessKey,
		BaseURL:   cfg.Unsplash.BaseURL,
		PerPage:   cfg.Unsplash.PerPage,
		Timeout:   cfg.HTTP.Timeout,
	})

	keywordClient := keywords.NewClient(keywords.Config{
		Endpoint: cfg.Keywords.Endpoint,
		Timeout:  cfg.HTTP.Timeout,
	})

	gen := generator.New(generator.Options{
		Keywords:    keywordClient,
		Searcher:    unsplashClient,
		Picker:      generator.NewPicker(cfg.Generator.Seed),
		Concurrency: cfg.Generator.Concurrency,
	})

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	return NewService(ServiceOptions{
		Config:     cfg,
		Generator:  gen,
		Unsplash:   unsplashClient,
		Downloader: gallery.NewDownloader(unsplashClient),
		Extractor:  extractor,
	}), nil
}

func buildExtractor(cfg *config.Config) (llm.KeywordExtractor, error) {
	if cfg.GroqAPIKey == "" {
		slog.Debug("GROQ_API_KEY not set, keyword API disabled")
		return nil, nil
	}

	var (
		p   *prompts.Prompts
		err error
	)
	if cfg.Groq.PromptsPath != "" {
		p, err = prompts.LoadFrom(cfg.Groq.PromptsPath)
	} else {
		p, err = prompts.Load()
	}
	if err != nil {
		return nil, err
	}

	client, err := groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model, p)
	if err != nil {
		return nil, err
	}
	return client, nil
}
