package portfolio

import (
	"sort"
	"time"

	"github.com/dandalion98/s-portfolio/internal/models"
)

// Summarizer folds matched lots and effects into day-granularity
// summaries, threading running totals forward from the latest persisted
// summary. One Summarizer serves one account's sync cycle.
type Summarizer struct {
	account string
	latest  *models.DailySummary // most recent persisted summary, may be nil
	dateMap map[int64]*models.DailySummary
}

// NewSummarizer creates a summarizer seeded with the account's most recent
// persisted summary (nil when the account has none).
func NewSummarizer(account string, latest *models.DailySummary) *Summarizer {
	return &Summarizer{
		account: account,
		latest:  latest,
		dateMap: make(map[int64]*models.DailySummary),
	}
}

// ensureDay returns the summary under construction for a day. When the day
// matches the latest persisted summary — a second sync cycle in one day —
// the persisted record is carried in and updated in place, so its earlier
// deltas are retained.
func (s *Summarizer) ensureDay(day time.Time) *models.DailySummary {
	key := day.Unix()
	if rec, ok := s.dateMap[key]; ok {
		return rec
	}

	var rec *models.DailySummary
	if s.latest != nil && s.latest.Date.Equal(day) {
		carried := *s.latest
		carried.EndBalance = s.latest.EndBalance.Clone()
		rec = &carried
	} else {
		rec = &models.DailySummary{
			ID:      models.SummaryID(s.account, day),
			Account: s.account,
			Date:    day,
		}
	}

	s.dateMap[key] = rec
	return rec
}

// AddPositions folds newly created close lots into their day's profit and
// trade counters. Must be called before AddEffects so running totals pick
// the profits up. Previously persisted lots are skipped — they were
// counted the cycle that created them. A close_unk lot counts as a trade
// but never as a winning one; its profit is unknown and contributes zero.
func (s *Summarizer) AddPositions(positions []*models.Position) {
	for i := len(positions) - 1; i >= 0; i-- {
		p := positions[i]

		if p.Persisted() || !p.IsClose() {
			continue
		}

		rec := s.ensureDay(models.DayOf(p.Time))
		rec.Trades++
		if p.Type == models.PositionClose && p.Profit.IsPositive() {
			rec.WinningTrades++
		}
		rec.Profits = models.Round(rec.Profits.Add(p.Profit))
	}
}

// AddEffects folds a newest-first sequence of new effects into day records
// and threads running totals oldest-to-newest across the touched days.
// The first effect seen for a day is its chronologically last, supplying
// the day's high-water mark and end-balance snapshot.
func (s *Summarizer) AddEffects(effects []models.Effect) {
	lastSeen := make(map[int64]bool)
	var touched []*models.DailySummary // chronological

	for i := range effects {
		e := &effects[i]
		day := e.Day()
		rec := s.ensureDay(day)

		if !lastSeen[day.Unix()] {
			lastSeen[day.Unix()] = true
			rec.LastEffectID = e.ID
			rec.EndBalance = e.EndBalance.Clone()
			touched = append([]*models.DailySummary{rec}, touched...)
		}

		switch e.Type {
		case models.EffectCredit:
			rec.Credits = models.Round(rec.Credits.Add(e.Amount))
		case models.EffectDebit:
			rec.Debits = models.Round(rec.Debits.Add(e.Amount))
		}
		// trades are accounted through positions
	}

	prev := s.chainBase(touched)
	for _, rec := range touched {
		rec.ApplyTotals(prev)
		prev = rec
	}
}

// chainBase picks the summary the totals chain starts from: zeros for a
// brand-new account, the latest persisted summary normally, or that
// summary's own base when its day is being re-summarized in place.
func (s *Summarizer) chainBase(touched []*models.DailySummary) *models.DailySummary {
	if s.latest == nil {
		return &models.DailySummary{}
	}
	if len(touched) > 0 && touched[0].Date.Equal(s.latest.Date) {
		return s.latest.ChainBase()
	}
	return s.latest
}

// Records returns the day summaries in chronological order.
func (s *Summarizer) Records() []*models.DailySummary {
	out := make([]*models.DailySummary, 0, len(s.dateMap))
	for _, rec := range s.dateMap {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
