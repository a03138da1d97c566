package statistics

import "time"

// OverallKey is the period label of the all-time aggregate inside every
// statistics document, next to the "YYYY-MM" month labels.
const OverallKey = "overall"

// Beverage kinds that get their own column in the aggregated totals. The
// per-user drinks map is open-ended; anything else still counts toward
// totalDrinks but is not broken out here.
const (
	KindBeer  = "beer"
	KindWine  = "wine"
	KindShots = "shots"
	KindDrink = "drink"
)

type BeverageTotals struct {
	Beer   int `json:"beer" firestore:"beer"`
	Wine   int `json:"wine" firestore:"wine"`
	Shots  int `json:"shots" firestore:"shots"`
	Drinks int `json:"drinks" firestore:"drinks"`
}

func (t BeverageTotals) Add(o BeverageTotals) BeverageTotals {
	return BeverageTotals{
		Beer:   t.Beer + o.Beer,
		Wine:   t.Wine + o.Wine,
		Shots:  t.Shots + o.Shots,
		Drinks: t.Drinks + o.Drinks,
	}
}

// TotalsFromDrinks picks the tracked kinds out of a per-user drinks map.
func TotalsFromDrinks(drinks map[string]int) BeverageTotals {
	return BeverageTotals{
		Beer:   drinks[KindBeer],
		Wine:   drinks[KindWine],
		Shots:  drinks[KindShots],
		Drinks: drinks[KindDrink],
	}
}

// RankedUser is a single leaderboard entry: the payload stored under each
// period label of the most-sladeshed, most-checked-in and top-drinkers
// documents.
type RankedUser struct {
	Username string `json:"username" firestore:"username"`
	Score    int    `json:"score" firestore:"score"`
}

// RolloverMarker identifies the most recent archive-then-reset cycle of the
// drink rollover job. Users carry the id of the last reset that reached them.
type RolloverMarker struct {
	ID string    `json:"id" firestore:"id"`
	At time.Time `json:"at" firestore:"at"`
}
