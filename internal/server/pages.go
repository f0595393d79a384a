package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"mealbridge/internal/geo"
	"mealbridge/internal/pipeline"
	"mealbridge/pkg/types"

	"github.com/alexedwards/flow"
)

func flowParam(r *http.Request, name string) string {
	return flow.Param(r.Context(), name)
}

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	donations, err := s.donations.Donations(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load donations for home page")
		donations = nil
	}

	var totalMeals, open int
	for _, d := range donations {
		totalMeals += d.Meals
		if d.Status == types.DonationStatusNotAccepted {
			open++
		}
	}

	recent := donations
	if len(recent) > 6 {
		recent = recent[:6]
	}

	data := types.HomePageData{
		BasePageData:   types.BasePageData{Title: "Share surplus food"},
		Notice:         r.URL.Query().Get("notice"),
		Error:          r.URL.Query().Get("error"),
		RecentListings: recent,
		TotalMeals:     totalMeals,
		OpenListings:   open,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "page.home", data); err != nil {
		s.logger.WithError(err).Error("failed to render home page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handleBrowse(w http.ResponseWriter, r *http.Request) {
	filters, fromQuery := s.browseFilters(r)
	if fromQuery {
		s.saveBrowseFilters(w, filters)
	}

	ref := referenceLocation(r.URL.Query())

	records, err := s.donations.Donations(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load donations for browse page")
		s.internalServerError(w)
		return
	}

	for _, record := range records {
		pipeline.Normalize(record)
	}

	now := time.Now()
	view := pipeline.ComputeView(records, filters, ref, now)

	cards := make([]*types.DonationCard, 0, len(view))
	for _, d := range view {
		label, class := statusBadge(d.Status)
		cards = append(cards, &types.DonationCard{
			DonationRecord: d.DonationRecord,
			DistanceKm:     d.DistanceKm,
			ExpiryLabel:    geo.ExpiryLabel(d.ExpiryOn, now),
			StatusLabel:    label,
			StatusClass:    class,
		})
	}

	data := types.BrowsePageData{
		BasePageData: types.BasePageData{Title: "Browse Donations"},
		Notice:       r.URL.Query().Get("notice"),
		Error:        r.URL.Query().Get("error"),
		Donations:    cards,
		Filters:      filters,
		HasLocation:  ref != nil,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "page.browse", data); err != nil {
		s.logger.WithError(err).Error("failed to render browse page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) redirectWithNotice(w http.ResponseWriter, r *http.Request, target, notice string) {
	v := url.Values{}
	v.Set("notice", notice)
	http.Redirect(w, r, target+"?"+v.Encode(), http.StatusSeeOther)
}

func (s *Service) redirectWithError(w http.ResponseWriter, r *http.Request, target, msg string) {
	v := url.Values{}
	v.Set("error", msg)
	http.Redirect(w, r, target+"?"+v.Encode(), http.StatusSeeOther)
}

func required(v string) bool {
	return strings.TrimSpace(v) != ""
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func statusBadge(status types.DonationStatus) (label, class string) {
	switch status {
	case types.DonationStatusNotAccepted:
		return "Available", "gray"
	case types.DonationStatusPickingUp:
		return "Pick Up In Progress", "amber"
	case types.DonationStatusCompleted:
		return "Completed", "emerald"
	}
	return "", ""
}
