package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mealbridge/pkg/types"
)

func (s *Service) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode json response")
	}
}

func (s *Service) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleAPIListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.donations.Donations(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list donations")
		s.writeJSONError(w, http.StatusInternalServerError, "could not list donations")
		return
	}

	s.writeJSON(w, http.StatusOK, donations)
}

func (s *Service) handleAPICreateDonation(w http.ResponseWriter, r *http.Request) {
	var donation types.DonationRecord
	if err := json.NewDecoder(r.Body).Decode(&donation); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if strings.TrimSpace(donation.ItemName) == "" {
		s.writeJSONError(w, http.StatusBadRequest, "itemName is required")
		return
	}
	if donation.Meals < 0 {
		s.writeJSONError(w, http.StatusBadRequest, "meals must not be negative")
		return
	}
	if donation.Status != "" && !donation.Status.Valid() {
		s.writeJSONError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err := s.donations.CreateDonation(r.Context(), &donation); err != nil {
		s.logger.WithError(err).Error("failed to create donation")
		s.writeJSONError(w, http.StatusInternalServerError, "could not create donation")
		return
	}

	s.writeJSON(w, http.StatusCreated, &donation)
}

func (s *Service) handleAPIUpdateDonation(w http.ResponseWriter, r *http.Request) {
	donationID := flowParam(r, "id")

	var patch types.DonationPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if patch.Status != nil && !patch.Status.Valid() {
		s.writeJSONError(w, http.StatusBadRequest, "unknown status")
		return
	}

	updated, err := s.donations.UpdateDonation(r.Context(), donationID, patch)
	if err != nil {
		if errors.Is(err, types.ErrDonationNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "Not found")
			return
		}
		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to update donation")
		s.writeJSONError(w, http.StatusInternalServerError, "could not update donation")
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Service) handleAPIGeocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("q"))
	if address == "" {
		s.writeJSONError(w, http.StatusBadRequest, "q is required")
		return
	}

	coords := s.resolver.Resolve(r.Context(), address)
	if coords == nil {
		s.writeJSONError(w, http.StatusNotFound, "address could not be resolved")
		return
	}

	s.writeJSON(w, http.StatusOK, coords)
}

func (s *Service) handleAPIReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		s.writeJSONError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	address, err := s.resolver.Reverse(r.Context(), lat, lon)
	if err != nil {
		s.logger.WithError(err).Warn("reverse geocode failed")
		s.writeJSONError(w, http.StatusNotFound, "location could not be resolved")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"address": address})
}
