package post

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/gorilla/feeds"

	"blog-api/internal/handler/http/respond"
	"blog-api/internal/observability/logging"
	postsUC "blog-api/internal/usecase/posts"
)

// FeedConfig describes the RSS channel.
type FeedConfig struct {
	SiteURL     string
	Title       string
	Description string
	Author      string
}

// DefaultFeedConfig returns the blog's channel metadata for siteURL.
func DefaultFeedConfig(siteURL string) FeedConfig {
	return FeedConfig{
		SiteURL:     siteURL,
		Title:       "Lorenzo Scaturchio's Blog",
		Description: "Articles about AI, technology, and software development",
		Author:      "Lorenzo Scaturchio",
	}
}

// RSSHandler serves GET /api/rss as RSS 2.0, newest first.
type RSSHandler struct {
	Svc    *postsUC.Service
	Feed   FeedConfig
	Logger *slog.Logger
	Now    func() time.Time
}

func (h RSSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Svc.Newest(r.Context())
	if err != nil {
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to build feed",
			slog.String("error", respond.SanitizeError(err)))
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	updated := now().UTC()
	author := &feeds.Author{Name: h.Feed.Author}

	feed := &feeds.Feed{
		Title:       h.Feed.Title,
		Link:        &feeds.Link{Href: h.Feed.SiteURL},
		Description: h.Feed.Description,
		Author:      author,
		Id:          h.Feed.SiteURL,
		Updated:     updated,
		Created:     updated,
		Copyright:   fmt.Sprintf("All rights reserved %d, %s", updated.Year(), h.Feed.Author),
		Image: &feeds.Image{
			Url:   h.Feed.SiteURL + "/og-image.png",
			Title: h.Feed.Title,
			Link:  h.Feed.SiteURL,
		},
	}

	for _, p := range posts {
		url := h.Svc.URL(p)
		item := &feeds.Item{
			Title:       p.DisplayTitle(),
			Link:        &feeds.Link{Href: url},
			Id:          url,
			Description: p.Description,
			Author:      author,
		}
		if t, ok := p.PublishedAt(); ok {
			item.Created = t
		}
		if p.Image != "" {
			item.Enclosure = &feeds.Enclosure{
				Url:    h.Feed.SiteURL + p.Image,
				Type:   imageType(p.Image),
				Length: "0",
			}
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to encode feed",
			slog.String("error", err.Error()))
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml;charset=utf-8")
	w.Header().Set("Cache-Control", CacheControl)
	_, _ = w.Write([]byte(rss))
}

func imageType(image string) string {
	switch path.Ext(image) {
	case ".webp":
		return "image/webp"
	case ".png":
		return "image/png"
	case ".jpg":
		return "image/jpg"
	default:
		return "image/jpeg"
	}
}
