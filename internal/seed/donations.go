package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"mealbridge/internal/store"
	"mealbridge/internal/utils"
	"mealbridge/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

var fakeItems = []struct {
	Name string
	Veg  bool
}{
	{"Vegetable Biryani", true},
	{"Dal Tadka", true},
	{"Paneer Butter Masala", true},
	{"Chicken Curry", false},
	{"Egg Fried Rice", false},
	{"Mixed Salad Trays", true},
	{"Sandwich Platters", true},
	{"Fish Curry", false},
	{"Idli and Sambar", true},
	{"Wedding Buffet Leftovers", false},
}

var fakeContacts = []struct {
	Name  string
	Ctype string
}{
	{"Asha Menon", "Individual"},
	{"Green Leaf Caterers", "Caterer"},
	{"Ravi Kumar", "Individual"},
	{"Sunrise Banquet Hall", "Venue"},
	{"Priya Nair", "Individual"},
	{"City Community Kitchen", "NGO"},
}

// Addresses are a mix of plain text and raw "lat, lon" strings so seeded
// data exercises both coordinate derivation paths.
var fakeAddresses = []string{
	"12.9716, 77.5946",
	"MG Road, Bengaluru",
	"13.0827, 80.2707",
	"Anna Nagar, Chennai",
	"19.0760, 72.8777",
	"Connaught Place, New Delhi",
}

type weightedDonationStatus struct {
	Status types.DonationStatus
	Weight int
}

var weightedStatuses = []weightedDonationStatus{
	{Status: types.DonationStatusNotAccepted, Weight: 60},
	{Status: types.DonationStatusPickingUp, Weight: 25},
	{Status: types.DonationStatusCompleted, Weight: 15},
}

func pickStatus() types.DonationStatus {
	total := 0
	for _, ws := range weightedStatuses {
		total += ws.Weight
	}

	n := rand.Intn(total)
	for _, ws := range weightedStatuses {
		if n < ws.Weight {
			return ws.Status
		}
		n -= ws.Weight
	}

	return types.DonationStatusNotAccepted
}

// SeedFakeDonations inserts count fake donation records, optionally wiping
// previously seeded rows first. Seeded rows are tagged through the contact
// phone prefix so reset only touches them.
func SeedFakeDonations(
	ctx context.Context,
	pool *pgxpool.Pool,
	donationRepo *store.DonationRepository,
	count int,
	reset bool,
) ([]*types.DonationRecord, error) {
	if count <= 0 {
		fmt.Println("Skipping fake donations seed because count <= 0")
		return nil, nil
	}

	if reset {
		_, err := pool.Exec(ctx, `DELETE FROM mealbridge.donations WHERE contact_phone LIKE '9900%'`)
		if err != nil {
			return nil, fmt.Errorf("failed to reset seeded fake donations: %w", err)
		}
	}

	created := make([]*types.DonationRecord, 0, count)
	now := time.Now()

	for i := 0; i < count; i++ {
		item := fakeItems[rand.Intn(len(fakeItems))]
		contact := fakeContacts[rand.Intn(len(fakeContacts))]

		preparedOn := now.Add(-time.Duration(rand.Intn(48)) * time.Hour)
		durationHours := []int{6, 12, 24, 48}[rand.Intn(4)]
		expiryOn := preparedOn.Add(time.Duration(durationHours) * time.Hour)

		donation := &types.DonationRecord{
			ItemName:     item.Name,
			Meals:        1 + rand.Intn(50),
			Veg:          item.Veg,
			PreparedOn:   utils.TimePtr(preparedOn),
			ExpiryOn:     utils.TimePtr(expiryOn),
			Address:      fakeAddresses[rand.Intn(len(fakeAddresses))],
			ContactName:  contact.Name,
			ContactPhone: fmt.Sprintf("9900%06d", rand.Intn(1000000)),
			ContactType:  contact.Ctype,
			Status:       pickStatus(),
		}

		if err := donationRepo.CreateDonation(ctx, donation); err != nil {
			return nil, fmt.Errorf("failed to create fake donation %d: %w", i, err)
		}

		created = append(created, donation)
	}

	return created, nil
}
