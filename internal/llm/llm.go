package llm

import "context"

// KeywordExtractor turns blog text into a short ordered list of search terms.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, content string, count int) ([]string, error)
}
