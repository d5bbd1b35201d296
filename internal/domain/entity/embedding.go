package entity

import "fmt"

// PostEmbedding is the semantic vector of a post plus the metadata returned
// by similarity searches.
type PostEmbedding struct {
	Slug        string
	Title       string
	URL         string
	Description string
	Date        string
	Image       string
	Content     string
	Embedding   []float32
}

// Validate checks that the embedding can be stored.
func (e *PostEmbedding) Validate(dimensions int) error {
	if err := ValidateSlug(e.Slug); err != nil {
		return err
	}
	if len(e.Embedding) == 0 {
		return &ValidationError{Field: "embedding", Message: "embedding is required", Err: ErrInvalidInput}
	}
	if dimensions > 0 && len(e.Embedding) != dimensions {
		return &ValidationError{
			Field:   "embedding",
			Message: fmt.Sprintf("embedding must have %d dimensions, got %d", dimensions, len(e.Embedding)),
			Err:     ErrInvalidInput,
		}
	}
	return nil
}

// SimilarPost is one similarity search hit.
type SimilarPost struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Image       string  `json:"image"`
	Content     string  `json:"-"`
	Similarity  float64 `json:"similarity"`
}
