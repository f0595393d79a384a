package store

import (
	"context"
	"fmt"
	"time"

	"mealbridge/internal/utils"
	"mealbridge/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const donationTableName = "mealbridge.donations"

var donationColumns = utils.StructTagValues(types.DonationRecord{})

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) Donations(ctx context.Context) ([]*types.DonationRecord, error) {

	query, args, err := psql().Select(donationColumns...).From(donationTableName).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations query: %w", err)
	}

	var donations = make([]*types.DonationRecord, 0)
	err = pgxscan.Select(ctx, r.pool, &donations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select donations: %w", err)
	}

	for _, donation := range donations {
		donation.SyncCoordinates()
	}

	return donations, nil
}

func (r *DonationRepository) Donation(ctx context.Context, donationID string) (*types.DonationRecord, error) {

	query, args, err := psql().Select(donationColumns...).From(donationTableName).
		Where(sq.Eq{"id": donationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation query: %w", err)
	}

	var donation = new(types.DonationRecord)
	err = pgxscan.Get(ctx, r.pool, donation, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrDonationNotFound
	}

	donation.SyncCoordinates()

	return donation, nil
}

func (r *DonationRepository) CreateDonation(ctx context.Context, donation *types.DonationRecord) error {

	if donation.ID == "" {
		donation.ID = utils.NanoID()
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now()
	}
	if donation.ContactType == "" {
		donation.ContactType = types.DefaultContactType
	}
	if donation.Status == "" {
		donation.Status = types.DonationStatusNotAccepted
	}
	donation.SyncCoordinates()

	donationMap := utils.StructToMap(donation)

	query, args, err := psql().Insert(donationTableName).SetMap(donationMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create donation")

}

// UpdateDonation merges the non-nil patch fields into an existing record and
// returns the stored result.
func (r *DonationRepository) UpdateDonation(ctx context.Context, donationID string, patch types.DonationPatch) (*types.DonationRecord, error) {

	if patch.Empty() {
		return r.Donation(ctx, donationID)
	}

	setMap := map[string]any{}
	if patch.ItemName != nil {
		setMap["item_name"] = *patch.ItemName
	}
	if patch.Meals != nil {
		setMap["meals"] = *patch.Meals
	}
	if patch.Veg != nil {
		setMap["veg"] = *patch.Veg
	}
	if patch.Address != nil {
		setMap["address"] = *patch.Address
	}
	if patch.ContactName != nil {
		setMap["contact_name"] = *patch.ContactName
	}
	if patch.ContactPhone != nil {
		setMap["contact_phone"] = *patch.ContactPhone
	}
	if patch.ContactType != nil {
		setMap["contact_type"] = *patch.ContactType
	}
	if patch.Status != nil {
		setMap["status"] = *patch.Status
	}

	query, args, err := psql().Update(donationTableName).SetMap(setMap).Where(sq.Eq{"id": donationID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update donation query for donation %s: %w", donationID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update donation %s: %w", donationID, err)
	}

	if tag.RowsAffected() == 0 {
		return nil, types.ErrDonationNotFound
	}

	return r.Donation(ctx, donationID)

}

func (r *DonationRepository) UpdateDonationStatus(ctx context.Context, donationID string, status types.DonationStatus) (*types.DonationRecord, error) {
	return r.UpdateDonation(ctx, donationID, types.DonationPatch{Status: &status})
}
