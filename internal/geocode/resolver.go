// Package geocode turns free-text addresses into coordinates by walking a
// fixed chain of providers, degrading to "no coordinates" when every
// provider fails.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mealbridge/pkg/types"

	"github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

type provider interface {
	Name() string
	Geocode(ctx context.Context, client *http.Client, address string) (*types.Coordinates, error)
}

type Resolver struct {
	logger     *logrus.Logger
	httpClient *http.Client
	providers  []provider

	reverseBaseURL string
}

// New builds a resolver with the configured provider chain. Pelias is only
// included when an API key is present.
func New(config *types.Config, logger *logrus.Logger) *Resolver {
	providers := []provider{
		&nominatim{baseURL: config.NominatimBaseURL},
		&photon{baseURL: config.PhotonBaseURL},
	}
	if config.PeliasAPIKey != "" {
		providers = append(providers, &pelias{baseURL: config.PeliasBaseURL, apiKey: config.PeliasAPIKey})
	}

	return &Resolver{
		logger:         logger,
		httpClient:     &http.Client{Timeout: requestTimeout},
		providers:      providers,
		reverseBaseURL: config.NominatimBaseURL,
	}
}

// Resolve tries each provider in order and returns the first hit. A blank
// address short-circuits without any network call. Resolution failure is not
// an error to the caller; the result is simply nil.
func (r *Resolver) Resolve(ctx context.Context, address string) *types.Coordinates {
	if strings.TrimSpace(address) == "" {
		return nil
	}

	for _, p := range r.providers {
		coords, err := p.Geocode(ctx, r.httpClient, address)
		if err != nil {
			r.logger.WithError(err).WithField("provider", p.Name()).Warn("geocoding provider failed")
			continue
		}
		if coords != nil {
			return coords
		}
	}

	r.logger.WithField("address", address).Warn("all geocoding providers failed")
	return nil
}

// Reverse looks up a display address for a coordinate pair via Nominatim.
func (r *Resolver) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s",
		r.reverseBaseURL,
		url.QueryEscape(strconv.FormatFloat(lat, 'f', -1, 64)),
		url.QueryEscape(strconv.FormatFloat(lon, 'f', -1, 64)),
	)

	var out struct {
		DisplayName string `json:"display_name"`
	}
	if err := getJSON(ctx, r.httpClient, endpoint, &out); err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}

	if out.DisplayName == "" {
		return "", fmt.Errorf("reverse geocode: no result for %f, %f", lat, lon)
	}

	return out.DisplayName, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, string(body))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// nominatim is the primary provider (OpenStreetMap).
type nominatim struct {
	baseURL string
}

func (n *nominatim) Name() string { return "nominatim" }

func (n *nominatim) Geocode(ctx context.Context, client *http.Client, address string) (*types.Coordinates, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&q=%s&limit=1", n.baseURL, url.QueryEscape(address))

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := getJSON(ctx, client, endpoint, &results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", results[0].Lon, err)
	}

	return &types.Coordinates{Lat: lat, Lon: lon}, nil
}

// geojsonFeatures is the shape shared by Photon and Pelias responses:
// coordinates come back as [lon, lat].
type geojsonFeatures struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (g *geojsonFeatures) first() *types.Coordinates {
	if len(g.Features) == 0 {
		return nil
	}
	coords := g.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return nil
	}
	return &types.Coordinates{Lat: coords[1], Lon: coords[0]}
}

type photon struct {
	baseURL string
}

func (p *photon) Name() string { return "photon" }

func (p *photon) Geocode(ctx context.Context, client *http.Client, address string) (*types.Coordinates, error) {
	endpoint := fmt.Sprintf("%s/api?q=%s&limit=1&lang=en", p.baseURL, url.QueryEscape(address))

	var out geojsonFeatures
	if err := getJSON(ctx, client, endpoint, &out); err != nil {
		return nil, err
	}

	return out.first(), nil
}

type pelias struct {
	baseURL string
	apiKey  string
}

func (p *pelias) Name() string { return "pelias" }

func (p *pelias) Geocode(ctx context.Context, client *http.Client, address string) (*types.Coordinates, error) {
	endpoint := fmt.Sprintf("%s/v1/search?api_key=%s&text=%s&size=1",
		p.baseURL, url.QueryEscape(p.apiKey), url.QueryEscape(address))

	var out geojsonFeatures
	if err := getJSON(ctx, client, endpoint, &out); err != nil {
		return nil, err
	}

	return out.first(), nil
}
