package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mealbridge/pkg/types"
)

const filtersCookieName = "browse_filters"

// browseFilters resolves the active filter configuration: explicit query
// parameters win, then the remembered cookie, then the defaults. The second
// return reports whether the query supplied anything worth remembering.
func (s *Service) browseFilters(r *http.Request) (types.FilterConfig, bool) {
	q := r.URL.Query()

	fromQuery := q.Has("sort") || q.Has("veg_only") || q.Has("min_meals") || q.Has("q")
	if !fromQuery {
		if saved, ok := s.loadBrowseFilters(r); ok {
			return saved, false
		}
		return types.DefaultFilters(), false
	}

	filters := types.DefaultFilters()

	if sortBy := types.SortKey(q.Get("sort")); sortBy.Valid() {
		filters.SortBy = sortBy
	}
	filters.VegOnly = q.Get("veg_only") == "1" || q.Get("veg_only") == "true"
	if minMeals, err := strconv.Atoi(q.Get("min_meals")); err == nil && minMeals > 0 {
		filters.MinMeals = minMeals
	}
	filters.Query = q.Get("q")

	return filters, true
}

func (s *Service) loadBrowseFilters(r *http.Request) (types.FilterConfig, bool) {
	cookie, err := r.Cookie(filtersCookieName)
	if err != nil {
		return types.FilterConfig{}, false
	}

	var filters types.FilterConfig
	if err := s.cookie.Decode(filtersCookieName, cookie.Value, &filters); err != nil {
		s.logger.WithError(err).Debug("discarding undecodable filters cookie")
		return types.FilterConfig{}, false
	}

	if !filters.SortBy.Valid() {
		filters.SortBy = types.SortByTime
	}

	return filters, true
}

func (s *Service) saveBrowseFilters(w http.ResponseWriter, filters types.FilterConfig) {
	encoded, err := s.cookie.Encode(filtersCookieName, filters)
	if err != nil {
		s.logger.WithError(err).Warn("failed to encode filters cookie")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     filtersCookieName,
		Value:    encoded,
		Path:     "/browse",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// referenceLocation reads the consumer's position from lat/lon query
// parameters supplied by the browser's geolocation flow.
func referenceLocation(q url.Values) *types.Coordinates {
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		return nil
	}
	return &types.Coordinates{Lat: lat, Lon: lon}
}
