package services

// incrementTier applies Increment while the current price is below UpTo.
type incrementTier struct {
	UpTo      int64
	Increment int64
}

var incrementTiers = []incrementTier{
	{UpTo: 10_000, Increment: 100},
	{UpTo: 50_000, Increment: 1_000},
	{UpTo: 100_000, Increment: 2_500},
	{UpTo: 500_000, Increment: 5_000},
}

const topIncrement int64 = 10_000

// MinIncrement returns the smallest raise accepted over currentPrice.
func MinIncrement(currentPrice int64) int64 {
	for _, tier := range incrementTiers {
		if currentPrice < tier.UpTo {
			return tier.Increment
		}
	}
	return topIncrement
}

// MinimumAcceptable is the lowest offer that beats currentPrice.
func MinimumAcceptable(currentPrice int64) int64 {
	return currentPrice + MinIncrement(currentPrice)
}
