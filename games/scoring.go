package games

import "sort"

// Scorecard categories for the dice game.
const (
	CategoryOnes          = "ones"
	CategoryTwos          = "twos"
	CategoryThrees        = "threes"
	CategoryFours         = "fours"
	CategoryFives         = "fives"
	CategorySixes         = "sixes"
	CategoryThreeOfAKind  = "three_of_a_kind"
	CategoryFourOfAKind   = "four_of_a_kind"
	CategoryFullHouse     = "full_house"
	CategorySmallStraight = "small_straight"
	CategoryLargeStraight = "large_straight"
	CategoryYahtzee       = "yahtzee"
	CategoryChance        = "chance"
)

// Categories lists every scorecard category in display order.
var Categories = []string{
	CategoryOnes, CategoryTwos, CategoryThrees, CategoryFours, CategoryFives, CategorySixes,
	CategoryThreeOfAKind, CategoryFourOfAKind, CategoryFullHouse,
	CategorySmallStraight, CategoryLargeStraight, CategoryYahtzee, CategoryChance,
}

var upperCategories = map[string]int{
	CategoryOnes:   1,
	CategoryTwos:   2,
	CategoryThrees: 3,
	CategoryFours:  4,
	CategoryFives:  5,
	CategorySixes:  6,
}

// fallbackOrder is the deterministic "waste" order used when every available
// category scores zero: lowest-value numeric categories burn first.
var fallbackOrder = []string{
	CategoryOnes, CategoryTwos, CategoryThrees, CategoryFours, CategoryFives, CategorySixes,
	CategoryYahtzee, CategoryLargeStraight, CategorySmallStraight,
	CategoryFullHouse, CategoryFourOfAKind, CategoryThreeOfAKind, CategoryChance,
}

var smallStraightRuns = [][]int{
	{1, 2, 3, 4},
	{2, 3, 4, 5},
	{3, 4, 5, 6},
}

func faceCounts(dice []int) map[int]int {
	counts := make(map[int]int, 6)
	for _, d := range dice {
		counts[d]++
	}
	return counts
}

func sumDice(dice []int) int {
	total := 0
	for _, d := range dice {
		total += d
	}
	return total
}

// CalculateScore computes the point value of scoring the given dice into the
// given category. Unknown categories score zero.
func CalculateScore(dice []int, category string) int {
	counts := faceCounts(dice)

	if face, ok := upperCategories[category]; ok {
		return counts[face] * face
	}

	switch category {
	case CategoryThreeOfAKind:
		for _, c := range counts {
			if c >= 3 {
				return sumDice(dice)
			}
		}
		return 0
	case CategoryFourOfAKind:
		for _, c := range counts {
			if c >= 4 {
				return sumDice(dice)
			}
		}
		return 0
	case CategoryFullHouse:
		hasThree, hasTwo := false, false
		for _, c := range counts {
			if c == 3 {
				hasThree = true
			}
			if c == 2 {
				hasTwo = true
			}
		}
		if hasThree && hasTwo {
			return 25
		}
		return 0
	case CategorySmallStraight:
		for _, run := range smallStraightRuns {
			found := true
			for _, face := range run {
				if counts[face] == 0 {
					found = false
					break
				}
			}
			if found {
				return 30
			}
		}
		return 0
	case CategoryLargeStraight:
		if len(counts) != 5 {
			return 0
		}
		faces := make([]int, 0, 5)
		for face := range counts {
			faces = append(faces, face)
		}
		sort.Ints(faces)
		for i := 1; i < len(faces); i++ {
			if faces[i] != faces[i-1]+1 {
				return 0
			}
		}
		return 40
	case CategoryYahtzee:
		for _, c := range counts {
			if c == 5 {
				return 50
			}
		}
		return 0
	case CategoryChance:
		return sumDice(dice)
	}
	return 0
}

// BestAvailableCategory picks the highest-scoring category not yet recorded in
// the scorecard. When every open category scores zero it falls back to a fixed
// priority order so a forced auto-score always has a deterministic answer.
// Returns "" only when the scorecard is already complete.
func BestAvailableCategory(dice []int, scorecard map[string]int) string {
	best := ""
	bestScore := 0
	for _, category := range Categories {
		if _, taken := scorecard[category]; taken {
			continue
		}
		score := CalculateScore(dice, category)
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	if best != "" {
		return best
	}
	for _, category := range fallbackOrder {
		if _, taken := scorecard[category]; !taken {
			return category
		}
	}
	return ""
}

// TotalScore sums a scorecard: upper section plus its 35-point bonus when the
// upper subtotal reaches 63, plus everything else.
func TotalScore(scorecard map[string]int) int {
	upper, lower := 0, 0
	for category, score := range scorecard {
		if _, ok := upperCategories[category]; ok {
			upper += score
		} else {
			lower += score
		}
	}
	total := upper + lower
	if upper >= 63 {
		total += 35
	}
	return total
}
