package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/dandalion98/s-portfolio/internal/models"
)

// ROI computes the realized return between two summaries, corrected for
// capital added during the window: net credits received between start and
// end are added to the base investment so a late deposit cannot inflate
// the apparent return. Returns ErrZeroBaseInvestment when the denominator
// is zero rather than dividing.
func ROI(end, start *models.DailySummary) (decimal.Decimal, error) {
	profit := end.TotalProfits.Sub(start.TotalProfits)
	if end.ID == start.ID {
		// single-record window: the day's own profit
		profit = end.Profits
	}

	baseInvestment := start.TotalCredits.Sub(start.TotalDebits)
	netCredits := end.TotalCredits.Sub(start.TotalCredits)
	baseInvestment = baseInvestment.Add(netCredits)

	if baseInvestment.IsZero() {
		return decimal.Zero, models.ErrZeroBaseInvestment
	}

	return models.Round(profit.Div(baseInvestment)), nil
}
