package server

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mealbridge/internal/geo"
	"mealbridge/pkg/types"
)

var (
	lettersOnlyRe = regexp.MustCompile(`^[A-Za-z\s]+$`)
	nonDigitRe    = regexp.MustCompile(`\D`)
)

const preparedDateLayout = "2006-01-02"

// preparedDates lists the accepted preparation dates: today, yesterday, and
// two days ago.
func preparedDates(now time.Time) []string {
	return []string{
		now.Format(preparedDateLayout),
		now.AddDate(0, 0, -1).Format(preparedDateLayout),
		now.AddDate(0, 0, -2).Format(preparedDateLayout),
	}
}

func validDuration(hours int) bool {
	switch hours {
	case 6, 12, 24, 48:
		return true
	}
	return false
}

// validateDonateForm applies the posting rules: letters-only names, a
// positive meal count, a ten-digit phone number, and a preparation date no
// older than two days.
func validateDonateForm(form types.DonateFormData, now time.Time) map[string]string {
	fieldErrors := map[string]string{}

	if !lettersOnlyRe.MatchString(form.ItemName) {
		fieldErrors["item_name"] = "Food item name must contain only letters and spaces."
	}
	if !lettersOnlyRe.MatchString(form.ContactName) {
		fieldErrors["contact_name"] = "Name must contain only letters and spaces."
	}

	if meals, err := strconv.Atoi(form.Meals); err != nil {
		fieldErrors["meals"] = "Number of meals must be a valid number."
	} else if meals <= 0 {
		fieldErrors["meals"] = "Number of meals must be greater than 0."
	}

	if form.PreparedOn == "" {
		fieldErrors["prepared_on"] = "Please select the prepared date."
	} else {
		ok := false
		for _, candidate := range preparedDates(now) {
			if form.PreparedOn == candidate {
				ok = true
				break
			}
		}
		if !ok {
			fieldErrors["prepared_on"] = "Prepared date must be today, yesterday, or 2 days before."
		}
	}

	if hours, err := strconv.Atoi(form.DurationHrs); err != nil || !validDuration(hours) {
		fieldErrors["duration_hours"] = "Please choose how long the food keeps."
	}

	phone := nonDigitRe.ReplaceAllString(form.ContactPhone, "")
	if len(phone) != 10 {
		fieldErrors["contact_phone"] = "Phone number must be exactly 10 digits."
	}

	if !required(form.Address) {
		fieldErrors["address"] = "Pickup address is required."
	}

	return fieldErrors
}

func (s *Service) handleGetDonate(w http.ResponseWriter, r *http.Request) {
	data := types.DonatePageData{
		BasePageData:  types.BasePageData{Title: "Make a Donation"},
		Form:          types.DonateFormData{VegNonVeg: "Veg", DurationHrs: "24"},
		Error:         r.URL.Query().Get("error"),
		PreparedDates: preparedDates(time.Now()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "page.donate", data); err != nil {
		s.logger.WithError(err).Error("failed to render donate page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostDonate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Error("failed to parse donate form")
		s.redirectWithError(w, r, "/donate", "invalid form payload")
		return
	}

	var form types.DonateFormData
	if err := decoder.Decode(&form, r.Form); err != nil {
		s.logger.WithError(err).Error("failed to decode donate form")
		s.internalServerError(w)
		return
	}

	now := time.Now()
	fieldErrors := validateDonateForm(form, now)
	if len(fieldErrors) > 0 {
		data := types.DonatePageData{
			BasePageData:  types.BasePageData{Title: "Make a Donation"},
			Form:          form,
			FieldErrors:   fieldErrors,
			Error:         "Please fix the highlighted errors before submitting.",
			PreparedDates: preparedDates(now),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.templates.ExecuteTemplate(w, "page.donate", data); err != nil {
			s.logger.WithError(err).Error("failed to render donate page")
			s.internalServerError(w)
		}
		return
	}

	meals, _ := strconv.Atoi(form.Meals)
	hours, _ := strconv.Atoi(form.DurationHrs)
	phone := nonDigitRe.ReplaceAllString(form.ContactPhone, "")

	preparedOn, err := time.ParseInLocation(preparedDateLayout, form.PreparedOn, time.Local)
	if err != nil {
		s.redirectWithError(w, r, "/donate", "invalid prepared date")
		return
	}
	expiryOn := geo.ExpiryFrom(preparedOn, hours)

	address := strings.TrimSpace(form.Address)

	donation := &types.DonationRecord{
		ItemName:     strings.TrimSpace(form.ItemName),
		Meals:        meals,
		Veg:          form.VegNonVeg == "Veg",
		PreparedOn:   &preparedOn,
		ExpiryOn:     &expiryOn,
		Address:      address,
		ContactName:  strings.TrimSpace(form.ContactName),
		ContactPhone: phone,
		ContactType:  types.DefaultContactType,
		Status:       types.DonationStatusNotAccepted,
	}

	donation.Coordinates = geo.ParseCoordinates(address)
	if donation.Coordinates == nil {
		geocodeCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		donation.Coordinates = s.resolver.Resolve(geocodeCtx, address)
		cancel()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.donations.CreateDonation(ctx, donation); err != nil {
		s.logger.WithError(err).Error("failed to create donation")
		s.redirectWithError(w, r, "/donate", "Could not submit donation. Please try again.")
		return
	}

	s.redirectWithNotice(w, r, "/browse", "Thank you! Your donation has been posted.")
}

func (s *Service) handleAcceptDonation(w http.ResponseWriter, r *http.Request) {
	s.updateStatusAndRedirect(w, r, types.DonationStatusPickingUp)
}

func (s *Service) handleCompleteDonation(w http.ResponseWriter, r *http.Request) {
	s.updateStatusAndRedirect(w, r, types.DonationStatusCompleted)
}

func (s *Service) updateStatusAndRedirect(w http.ResponseWriter, r *http.Request, status types.DonationStatus) {
	donationID := flowParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := s.donations.UpdateDonation(ctx, donationID, types.DonationPatch{Status: &status})
	if err != nil {
		if errors.Is(err, types.ErrDonationNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to update donation status")
		s.redirectWithError(w, r, "/browse", "Could not update donation status.")
		return
	}

	http.Redirect(w, r, "/browse", http.StatusSeeOther)
}
