// Package location resolves an approximate "City, Country" string for a
// client address using a cascade of free geo-IP providers, with a Redis
// cache in front so a provider is hit at most once per address per day.
package location

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Unknown is the sentinel returned when every provider fails. Callers treat
// it as "do not persist".
const Unknown = "Unknown Location"

const (
	providerTimeout = 3 * time.Second
	cacheTTL        = 24 * time.Hour
	maxBodyBytes    = 1 << 16
)

type provider struct {
	name  string
	url   func(ip string) string
	parse func(body []byte) (string, bool)
}

var defaultProviders = []provider{
	{
		name: "ipapi.co",
		url:  func(ip string) string { return "https://ipapi.co/" + ip + "/json/" },
		parse: func(body []byte) (string, bool) {
			var data struct {
				City    string `json:"city"`
				Country string `json:"country_name"`
			}
			if err := json.Unmarshal(body, &data); err != nil {
				return "", false
			}
			if data.City == "" || data.Country == "" {
				return "", false
			}
			return data.City + ", " + data.Country, true
		},
	},
	{
		name: "ipwho.is",
		url:  func(ip string) string { return "https://ipwho.is/" + ip },
		parse: func(body []byte) (string, bool) {
			var data struct {
				Success bool   `json:"success"`
				City    string `json:"city"`
				Country string `json:"country"`
			}
			if err := json.Unmarshal(body, &data); err != nil {
				return "", false
			}
			if !data.Success || data.City == "" || data.Country == "" {
				return "", false
			}
			return data.City + ", " + data.Country, true
		},
	},
	{
		name: "ipinfo.io",
		url:  func(ip string) string { return "https://ipinfo.io/" + ip + "/json" },
		parse: func(body []byte) (string, bool) {
			var data struct {
				City    string `json:"city"`
				Country string `json:"country"`
			}
			if err := json.Unmarshal(body, &data); err != nil {
				return "", false
			}
			if data.City == "" || data.Country == "" {
				return "", false
			}
			return data.City + ", " + data.Country, true
		},
	},
}

// Service looks up client locations. A nil redis client disables caching.
type Service struct {
	client    *http.Client
	cache     *redis.Client
	providers []provider
}

func NewService(cache *redis.Client) *Service {
	return &Service{
		client:    &http.Client{Timeout: providerTimeout},
		cache:     cache,
		providers: defaultProviders,
	}
}

func cacheKey(ip string) string {
	return "location:" + ip
}

// Lookup resolves ip to "City, Country", trying each provider in order until
// one yields a usable answer. It returns Unknown when all of them fail.
// Cache errors degrade silently to a live lookup.
func (s *Service) Lookup(ctx context.Context, ip string) string {
	if ip == "" {
		return Unknown
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey(ip)).Result(); err == nil && cached != "" {
			return cached
		} else if err != nil && err != redis.Nil {
			log.Println("[LOCATION] [WARN] cache read failed:", err)
		}
	}

	for _, p := range s.providers {
		location, ok := s.query(ctx, p, ip)
		if !ok {
			continue
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey(ip), location, cacheTTL).Err(); err != nil {
				log.Println("[LOCATION] [WARN] cache write failed:", err)
			}
		}
		return location
	}

	log.Println("[LOCATION] [WARN] all providers failed for", ip)
	return Unknown
}

func (s *Service) query(ctx context.Context, p provider, ip string) (string, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.url(ip), nil)
	if err != nil {
		return "", false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[LOCATION] [WARN] %s lookup failed: %v", p.name, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[LOCATION] [WARN] %s returned status %d", p.name, resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Printf("[LOCATION] [WARN] %s read failed: %v", p.name, err)
		return "", false
	}

	return p.parse(body)
}
