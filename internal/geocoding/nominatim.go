package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shenikar/feuerwehr_melder/internal/config"
	"github.com/shenikar/feuerwehr_melder/internal/metrics"
	"github.com/sirupsen/logrus"
)

// NominatimClient разрешает адрес в координаты через OpenStreetMap Nominatim.
// Ошибки не возвращаются вызывающему: при любой проблеме результатом будут (nil, nil).
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewNominatimClient создает новый NominatimClient
func NewNominatimClient(cfg *config.Config, logger *logrus.Logger) *NominatimClient {
	return &NominatimClient{
		baseURL:   strings.TrimRight(cfg.GeocoderURL, "/"),
		userAgent: cfg.GeocoderUserAgent,
		httpClient: &http.Client{
			Timeout: cfg.GeocoderTimeout,
		},
		logger: logger,
	}
}

type searchResult struct {
	Lat *coordinate `json:"lat"`
	Lon *coordinate `json:"lon"`
}

// coordinate принимает как строку ("52.52"), так и число
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", data, err)
	}
	*c = coordinate(v)
	return nil
}

// Resolve возвращает координаты первого найденного результата
func (c *NominatimClient) Resolve(ctx context.Context, address string) (*float64, *float64) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	log := c.logger.WithField("method", "Resolve").WithField("address", address)

	lat, lon, err := c.search(ctx, address)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		log.WithError(err).Warn("Geocoding failed, continuing without coordinates")
		return nil, nil
	}
	if lat == nil {
		metrics.GeocodeRequests.WithLabelValues("miss").Inc()
		log.Debug("Geocoder returned no results")
		return nil, nil
	}

	metrics.GeocodeRequests.WithLabelValues("hit").Inc()
	return lat, lon
}

func (c *NominatimClient) search(ctx context.Context, address string) (*float64, *float64, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("geocoder responded with status code %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	c.logger.WithField("duration", time.Since(start)).WithField("results", len(results)).Debug("Geocoding request completed")

	if len(results) == 0 {
		return nil, nil, nil
	}
	first := results[0]
	if first.Lat == nil || first.Lon == nil {
		return nil, nil, fmt.Errorf("geocoding result has no coordinates")
	}
	lat, lon := float64(*first.Lat), float64(*first.Lon)
	return &lat, &lon, nil
}
