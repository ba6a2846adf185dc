package domain

// Category identifies one risk signal domain.
type Category string

const (
	CategoryLiquidity Category = "liquidity"
	CategoryOwnership Category = "ownership"
	CategoryContract  Category = "contract"
	CategoryTrading   Category = "trading"
	CategorySocial    Category = "social"
)

// Categories returns all categories in canonical order.
// The order is fixed so that iteration over categories is deterministic.
func Categories() []Category {
	return []Category{
		CategoryLiquidity,
		CategoryOwnership,
		CategoryContract,
		CategoryTrading,
		CategorySocial,
	}
}

// categoryWeights holds the relative weight of each category in the
// composite score. Weights are renormalized over present categories
// during aggregation, so they only need to be positive.
var categoryWeights = map[Category]float64{
	CategoryLiquidity: 0.25,
	CategoryOwnership: 0.25,
	CategoryContract:  0.20,
	CategoryTrading:   0.20,
	CategorySocial:    0.10,
}

// Weight returns the composite weight of a category.
// Returns 0 for unknown categories.
func (c Category) Weight() float64 {
	return categoryWeights[c]
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryWeights[c]
	return ok
}

// ParseCategory converts a string to a Category.
// Returns false if the string is not a known category id.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}
