package reporting

import (
	"context"
	"time"

	"github.com/loomworks/loomledger/internal/domain/models"
)

// BuildDailySnapshot assembles the end-of-day production record for the
// calendar day containing t.
func (s *Service) BuildDailySnapshot(ctx context.Context, t time.Time) (models.DailySnapshot, error) {
	start, end := dayRange(t)

	var shifts [2]models.ProductionTotals
	for i, shift := range []models.Shift{models.ShiftDay, models.ShiftNight} {
		totals, err := s.entries.Totals(ctx, models.ProductionFilter{From: &start, To: &end, Shift: shift})
		if err != nil {
			return models.DailySnapshot{}, err
		}
		shifts[i] = totals
	}

	activeTakas, err := s.takas.CountByStatus(ctx, models.LotActive)
	if err != nil {
		return models.DailySnapshot{}, err
	}

	return models.DailySnapshot{
		Date:  start,
		Day:   shifts[0],
		Night: shifts[1],
		Total: models.ProductionTotals{
			Count:    shifts[0].Count + shifts[1].Count,
			Meters:   shifts[0].Meters + shifts[1].Meters,
			Earnings: shifts[0].Earnings + shifts[1].Earnings,
		},
		ActiveTakas: activeTakas,
	}, nil
}
