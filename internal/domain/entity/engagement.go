package entity

// ReactionType is a kind of reader reaction.
type ReactionType string

const (
	ReactionLike     ReactionType = "like"
	ReactionBookmark ReactionType = "bookmark"
)

// ParseReactionType validates a client supplied reaction type.
func ParseReactionType(s string) (ReactionType, error) {
	switch ReactionType(s) {
	case ReactionLike, ReactionBookmark:
		return ReactionType(s), nil
	default:
		return "", &ValidationError{Field: "type", Message: "type must be like or bookmark", Err: ErrInvalidReactionType}
	}
}

// PostViews is the view counter of one post.
type PostViews struct {
	Slug  string `json:"slug"`
	Views int64  `json:"views"`
}

// Reactions are the reaction counters of one post.
type Reactions struct {
	Slug      string `json:"slug"`
	Likes     int64  `json:"likes"`
	Bookmarks int64  `json:"bookmarks"`
}
