package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"blog-api/pkg/config"
)

// DefaultSiteURL is the public origin of the blog.
const DefaultSiteURL = "https://lscaturchio.xyz"

// SiteConfig holds settings about the blog itself.
type SiteConfig struct {
	// SiteURL is used for feed links and as an allowed origin.
	SiteURL string

	// Title and Description of the RSS channel.
	Title       string
	Description string

	// AllowedOrigins may call the API from a browser and submit mutations.
	AllowedOrigins []string

	// CatalogPath is the YAML file listing published posts.
	CatalogPath string

	// CatalogTTL is how long a loaded catalog is served before reloading.
	CatalogTTL time.Duration

	// VoteHashSalt enables reaction vote deduplication when set.
	VoteHashSalt string

	// PopularTierTimeout bounds each popular-posts ranking tier.
	PopularTierTimeout time.Duration
}

// LoadSiteConfig loads site configuration from environment variables.
func LoadSiteConfig() (*SiteConfig, error) {
	siteURL := strings.TrimRight(config.GetEnvString("SITE_URL", DefaultSiteURL), "/")

	cfg := &SiteConfig{
		SiteURL:            siteURL,
		Title:              config.GetEnvString("SITE_TITLE", "Lorenzo Scaturchio"),
		Description:        config.GetEnvString("SITE_DESCRIPTION", "Writing on data science, software engineering and building things."),
		AllowedOrigins:     config.GetEnvStringList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins(siteURL)),
		CatalogPath:        config.GetEnvString("CONTENT_CATALOG_PATH", "content/posts.yaml"),
		CatalogTTL:         config.GetEnvDuration("CONTENT_CACHE_TTL", time.Minute),
		VoteHashSalt:       config.GetEnvString("VOTE_HASH_SALT", ""),
		PopularTierTimeout: config.GetEnvDuration("POPULAR_TIER_TIMEOUT", 2*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site configuration: %w", err)
	}
	return cfg, nil
}

// DefaultAllowedOrigins returns the site origin, its www variant and the
// local development server.
func DefaultAllowedOrigins(siteURL string) []string {
	origins := []string{siteURL}
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		if strings.HasPrefix(u.Host, "www.") {
			origins = append(origins, u.Scheme+"://"+strings.TrimPrefix(u.Host, "www."))
		} else {
			origins = append(origins, u.Scheme+"://www."+u.Host)
		}
	}
	return append(origins, "http://localhost:3000")
}

// Validate checks configuration correctness.
func (c *SiteConfig) Validate() error {
	u, err := url.Parse(c.SiteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SITE_URL must be an absolute http(s) URL, got %q", c.SiteURL)
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("CONTENT_CATALOG_PATH cannot be empty")
	}
	if err := config.ValidatePositiveDuration(c.CatalogTTL); err != nil {
		return fmt.Errorf("CONTENT_CACHE_TTL: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.PopularTierTimeout); err != nil {
		return fmt.Errorf("POPULAR_TIER_TIMEOUT: %w", err)
	}
	return nil
}
