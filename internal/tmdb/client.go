// Package tmdb is a small client for The Movie Database API covering what
// the room catalog needs: popular movies, details and title search.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	posterBase     = "https://image.tmdb.org/t/p/w500"
	backdropBase   = "https://image.tmdb.org/t/p/w1280"
	posterFallback = "https://via.placeholder.com/500x750?text=No+Poster"

	// popular results below this rating are skipped
	minRating = 5.0

	// random starting page window, for candidate variety between rooms
	maxStartPage = 50

	searchLimit = 10
)

// ErrNotFound reports a movie id unknown to TMDB.
var ErrNotFound = errors.New("tmdb: not found")

// Cache stores raw catalog pages. Any Get failure counts as a miss; the
// client falls back to the API.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Config struct {
	APIKey  string
	BaseURL string       // defaults to the public API
	Client  *http.Client // defaults to a client with a 10s timeout
	Cache   Cache        // optional page cache
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   Cache
}

func New(cfg Config) *Client {
	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: defaultBaseURL,
		http:    cfg.Client,
		cache:   cfg.Cache,
	}
	if cfg.BaseURL != "" {
		c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	return c
}

// PopularMovies collects n movies rated at least 5.0, walking pages forward
// from a random start so consecutive rooms get different candidates. A page
// fetch failure returns whatever was collected so far; the error surfaces
// only when nothing at all could be fetched.
func (c *Client) PopularMovies(ctx context.Context, n int) ([]domain.Movie, error) {
	if n <= 0 {
		return nil, nil
	}

	start := rand.Intn(maxStartPage) + 1
	pages := n/15 + 2

	movies := make([]domain.Movie, 0, n)
	var lastErr error
	for page := start; page < start+pages && len(movies) < n; page++ {
		pr, err := c.popularPage(ctx, page)
		if err != nil {
			lastErr = err
			break
		}
		for _, m := range pr.Results {
			if m.VoteAverage >= minRating {
				movies = append(movies, formatMovie(m))
			}
		}
	}
	if len(movies) == 0 && lastErr != nil {
		return nil, lastErr
	}
	if len(movies) > n {
		movies = movies[:n]
	}
	return movies, nil
}

// MovieDetails fetches one movie with credits and videos appended.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*domain.Movie, error) {
	q := url.Values{}
	q.Set("language", "en-US")
	q.Set("append_to_response", "credits,videos")

	var m apiMovie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), q, &m); err != nil {
		return nil, err
	}
	movie := formatMovie(m)
	return &movie, nil
}

// SearchMovies returns up to ten title matches.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("language", "en-US")
	q.Set("query", query)
	q.Set("page", "1")

	var pr pageResult
	if err := c.get(ctx, "/search/movie", q, &pr); err != nil {
		return nil, err
	}
	out := make([]domain.Movie, 0, searchLimit)
	for _, m := range pr.Results {
		if len(out) == searchLimit {
			break
		}
		out = append(out, formatMovie(m))
	}
	return out, nil
}

func (c *Client) popularPage(ctx context.Context, page int) (*pageResult, error) {
	key := "tmdb:popular:" + strconv.Itoa(page)
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key); err == nil {
			var pr pageResult
			if json.Unmarshal(raw, &pr) == nil {
				return &pr, nil
			}
		}
	}

	q := url.Values{}
	q.Set("language", "en-US")
	q.Set("page", strconv.Itoa(page))

	var pr pageResult
	if err := c.get(ctx, "/movie/popular", q, &pr); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(pr); err == nil {
			_ = c.cache.Set(ctx, key, raw)
		}
	}
	return &pr, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("tmdb: GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

type pageResult struct {
	Page       int        `json:"page"`
	Results    []apiMovie `json:"results"`
	TotalPages int        `json:"total_pages"`
}

type apiMovie struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Overview     string     `json:"overview"`
	PosterPath   string     `json:"poster_path"`
	BackdropPath string     `json:"backdrop_path"`
	ReleaseDate  string     `json:"release_date"`
	VoteAverage  float64    `json:"vote_average"`
	VoteCount    int64      `json:"vote_count"`
	Genres       []apiGenre `json:"genres"`
	Runtime      *int       `json:"runtime"`
}

type apiGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// formatMovie normalizes an API payload: image paths become full URLs (a
// placeholder when the poster is missing), the rating is rounded to one
// decimal and genre objects collapse to their names.
func formatMovie(m apiMovie) domain.Movie {
	out := domain.Movie{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: math.Round(m.VoteAverage*10) / 10,
		VoteCount:   m.VoteCount,
		Runtime:     m.Runtime,
	}
	if out.Title == "" {
		out.Title = "Unknown Title"
	}
	if out.Overview == "" {
		out.Overview = "No description available"
	}
	if out.ReleaseDate == "" {
		out.ReleaseDate = "Unknown"
	}
	if m.PosterPath != "" {
		out.PosterPath = posterBase + m.PosterPath
	} else {
		out.PosterPath = posterFallback
	}
	if m.BackdropPath != "" {
		u := backdropBase + m.BackdropPath
		out.BackdropPath = &u
	}
	for _, g := range m.Genres {
		if g.Name != "" {
			out.Genres = append(out.Genres, g.Name)
		}
	}
	return out
}
