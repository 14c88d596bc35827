package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/johnryanerminio/thrive-analytics/aggregator"
	"github.com/johnryanerminio/thrive-analytics/ledger"
	"github.com/johnryanerminio/thrive-analytics/loader"
)

// Sales score weights. The five sub-scores are min-max normalized across
// the budtender population for the period, then weighted into a 0-100
// composite.
const (
	weightCartValue    = 30.0
	weightUnitsPerCart = 25.0
	weightDiscount     = 20.0
	weightLoyalty      = 15.0
	weightFaceToFace   = 10.0
)

// Tier thresholds on the composite score.
const (
	TierTop        = "Top Performer"
	TierSolid      = "Solid"
	TierDeveloping = "Developing"
	TierCoaching   = "Needs Coaching"
)

// SalesScore is one budtender's composite performance score with its
// sub-score breakdown.
type SalesScore struct {
	Name  string
	Store string

	CartScore     float64
	UnitsScore    float64
	DiscountScore float64
	LoyaltyScore  float64
	F2FScore      float64

	Score float64
	Tier  string
}

func tierFor(score float64) string {
	switch {
	case score >= 70:
		return TierTop
	case score >= 50:
		return TierSolid
	case score >= 30:
		return TierDeveloping
	default:
		return TierCoaching
	}
}

var faceToFaceMarkers = []string{"WALK", "IN-STORE", "FACE"}

// FaceToFacePct computes, per budtender, the share of their period sales
// sold face to face, judged by the order type.
func FaceToFacePct(engine *aggregator.Engine, period *ledger.PeriodFilter) map[string]float64 {
	rows := engine.Snapshot().Rows()
	total := make(map[string]int)
	f2f := make(map[string]int)
	for i := range rows {
		row := &rows[i]
		if row.SoldBy == "" {
			continue
		}
		if period != nil && !period.Contains(row.SaleDate) {
			continue
		}
		total[row.SoldBy]++
		orderType := strings.ToUpper(row.OrderType)
		for _, marker := range faceToFaceMarkers {
			if strings.Contains(orderType, marker) {
				f2f[row.SoldBy]++
				break
			}
		}
	}
	pct := make(map[string]float64, len(total))
	for name, n := range total {
		pct[name] = float64(f2f[name]) / float64(n) * 100
	}
	return pct
}

// SalesScores scores the budtender population. Budtenders under
// minTransactions are excluded from both the normalization baseline and the
// output; when nobody clears the floor the whole population is scored
// instead of producing an empty report. Results are ordered by score
// descending, ties by name.
func SalesScores(stats []loader.BudtenderStat, faceToFace map[string]float64, minTransactions int64) []SalesScore {
	var eligible []loader.BudtenderStat
	for _, stat := range stats {
		if stat.NumTransactions >= minTransactions {
			eligible = append(eligible, stat)
		}
	}
	if len(eligible) == 0 {
		eligible = stats
	}
	if len(eligible) == 0 {
		return nil
	}

	cartMin, cartMax := math.Inf(1), math.Inf(-1)
	unitsMin, unitsMax := math.Inf(1), math.Inf(-1)
	loyaltyMax := 0.0
	for _, stat := range eligible {
		cart := stat.AvgCartValue.InexactFloat64()
		cartMin = math.Min(cartMin, cart)
		cartMax = math.Max(cartMax, cart)
		unitsMin = math.Min(unitsMin, stat.AvgUnitsPerCart)
		unitsMax = math.Max(unitsMax, stat.AvgUnitsPerCart)
		loyaltyMax = math.Max(loyaltyMax, float64(stat.LoyaltyEnrollments))
	}
	// The +0.01 keeps a uniform population from dividing by zero while
	// leaving real ranges effectively untouched.
	cartRange := cartMax - cartMin + 0.01
	unitsRange := unitsMax - unitsMin + 0.01

	scores := make([]SalesScore, 0, len(eligible))
	for _, stat := range eligible {
		s := SalesScore{Name: stat.Name, Store: stat.Store}
		s.CartScore = (stat.AvgCartValue.InexactFloat64() - cartMin) / cartRange * weightCartValue
		s.UnitsScore = (stat.AvgUnitsPerCart - unitsMin) / unitsRange * weightUnitsPerCart
		s.DiscountScore = (100 - stat.PctSalesDiscounted) / 100 * weightDiscount
		if loyaltyMax > 0 {
			s.LoyaltyScore = float64(stat.LoyaltyEnrollments) / loyaltyMax * weightLoyalty
		}
		s.F2FScore = faceToFace[stat.Name] / 100 * weightFaceToFace
		s.Score = math.Round(s.CartScore + s.UnitsScore + s.DiscountScore + s.LoyaltyScore + s.F2FScore)
		s.Tier = tierFor(s.Score)
		scores = append(scores, s)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Name < scores[j].Name
	})
	return scores
}

// BudtenderSummary is the roll-up over a scored population.
type BudtenderSummary struct {
	TotalBudtenders int
	AvgSalesScore   float64
	TopPerformers   int
	NeedsCoaching   int
}

func SummarizeScores(scores []SalesScore) BudtenderSummary {
	summary := BudtenderSummary{TotalBudtenders: len(scores)}
	if len(scores) == 0 {
		return summary
	}
	total := 0.0
	for _, s := range scores {
		total += s.Score
		switch s.Tier {
		case TierTop:
			summary.TopPerformers++
		case TierCoaching:
			summary.NeedsCoaching++
		}
	}
	summary.AvgSalesScore = math.Round(total/float64(len(scores))*10) / 10
	return summary
}
