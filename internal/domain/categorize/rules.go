// Package categorize assigns spending categories to transaction
// descriptions. A trained classifier gets first say; a keyword rule engine
// backs it up; everything else lands in the catch-all category.
package categorize

import (
	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
)

// Rule is one weighted keyword. Multi-word brand patterns carry more weight
// than generic terms so "WHOLE FOODS MARKET" beats a stray "market".
type Rule struct {
	Keyword  string
	Category transaction.Category
	Weight   float64
}

// DefaultRules is the built-in keyword table. Keywords are matched
// case-insensitively as substrings of the description.
var DefaultRules = []Rule{
	// food
	{"restaurant", transaction.CategoryFood, 1.5},
	{"cafe", transaction.CategoryFood, 1.5},
	{"coffee", transaction.CategoryFood, 1.5},
	{"starbucks", transaction.CategoryFood, 2.0},
	{"mcdonald", transaction.CategoryFood, 2.0},
	{"burger", transaction.CategoryFood, 1.5},
	{"pizza", transaction.CategoryFood, 1.5},
	{"grocery", transaction.CategoryFood, 1.5},
	{"supermarket", transaction.CategoryFood, 1.5},
	{"whole foods", transaction.CategoryFood, 2.0},
	{"trader joe", transaction.CategoryFood, 2.0},
	{"safeway", transaction.CategoryFood, 2.0},
	{"kroger", transaction.CategoryFood, 2.0},
	{"aldi", transaction.CategoryFood, 2.0},
	{"lidl", transaction.CategoryFood, 2.0},
	{"doordash", transaction.CategoryFood, 2.0},
	{"uber eats", transaction.CategoryFood, 2.0},
	{"grubhub", transaction.CategoryFood, 2.0},
	{"deliveroo", transaction.CategoryFood, 2.0},
	{"bakery", transaction.CategoryFood, 1.5},
	{"deli", transaction.CategoryFood, 1.0},

	// transport
	{"uber", transaction.CategoryTransport, 1.5},
	{"lyft", transaction.CategoryTransport, 2.0},
	{"taxi", transaction.CategoryTransport, 1.5},
	{"gas station", transaction.CategoryTransport, 2.0},
	{"shell", transaction.CategoryTransport, 1.5},
	{"chevron", transaction.CategoryTransport, 2.0},
	{"exxon", transaction.CategoryTransport, 2.0},
	{"fuel", transaction.CategoryTransport, 1.5},
	{"parking", transaction.CategoryTransport, 1.5},
	{"metro", transaction.CategoryTransport, 1.0},
	{"transit", transaction.CategoryTransport, 1.5},
	{"railway", transaction.CategoryTransport, 1.5},
	{"toll", transaction.CategoryTransport, 1.0},
	{"car wash", transaction.CategoryTransport, 2.0},

	// entertainment
	{"netflix", transaction.CategoryEntertainment, 2.0},
	{"spotify", transaction.CategoryEntertainment, 2.0},
	{"hulu", transaction.CategoryEntertainment, 2.0},
	{"disney", transaction.CategoryEntertainment, 2.0},
	{"cinema", transaction.CategoryEntertainment, 1.5},
	{"movie", transaction.CategoryEntertainment, 1.5},
	{"theater", transaction.CategoryEntertainment, 1.5},
	{"concert", transaction.CategoryEntertainment, 1.5},
	{"steam games", transaction.CategoryEntertainment, 2.0},
	{"playstation", transaction.CategoryEntertainment, 2.0},
	{"xbox", transaction.CategoryEntertainment, 2.0},
	{"nintendo", transaction.CategoryEntertainment, 2.0},
	{"twitch", transaction.CategoryEntertainment, 2.0},

	// shopping
	{"amazon", transaction.CategoryShopping, 2.0},
	{"walmart", transaction.CategoryShopping, 2.0},
	{"target", transaction.CategoryShopping, 1.5},
	{"ebay", transaction.CategoryShopping, 2.0},
	{"etsy", transaction.CategoryShopping, 2.0},
	{"best buy", transaction.CategoryShopping, 2.0},
	{"ikea", transaction.CategoryShopping, 2.0},
	{"clothing", transaction.CategoryShopping, 1.5},
	{"shoes", transaction.CategoryShopping, 1.0},
	{"nike", transaction.CategoryShopping, 2.0},
	{"adidas", transaction.CategoryShopping, 2.0},
	{"department store", transaction.CategoryShopping, 2.0},

	// utilities
	{"electric", transaction.CategoryUtilities, 1.5},
	{"water bill", transaction.CategoryUtilities, 2.0},
	{"internet", transaction.CategoryUtilities, 1.5},
	{"comcast", transaction.CategoryUtilities, 2.0},
	{"verizon", transaction.CategoryUtilities, 2.0},
	{"at&t", transaction.CategoryUtilities, 2.0},
	{"t-mobile", transaction.CategoryUtilities, 2.0},
	{"vodafone", transaction.CategoryUtilities, 2.0},
	{"utility", transaction.CategoryUtilities, 1.5},
	{"sewer", transaction.CategoryUtilities, 1.5},
	{"phone bill", transaction.CategoryUtilities, 2.0},

	// healthcare
	{"pharmacy", transaction.CategoryHealthcare, 1.5},
	{"cvs", transaction.CategoryHealthcare, 2.0},
	{"walgreens", transaction.CategoryHealthcare, 2.0},
	{"doctor", transaction.CategoryHealthcare, 1.5},
	{"dental", transaction.CategoryHealthcare, 1.5},
	{"hospital", transaction.CategoryHealthcare, 1.5},
	{"clinic", transaction.CategoryHealthcare, 1.5},
	{"medical", transaction.CategoryHealthcare, 1.5},
	{"optician", transaction.CategoryHealthcare, 1.5},

	// education
	{"tuition", transaction.CategoryEducation, 2.0},
	{"university", transaction.CategoryEducation, 1.5},
	{"college", transaction.CategoryEducation, 1.5},
	{"udemy", transaction.CategoryEducation, 2.0},
	{"coursera", transaction.CategoryEducation, 2.0},
	{"textbook", transaction.CategoryEducation, 1.5},
	{"school fee", transaction.CategoryEducation, 2.0},

	// travel
	{"hotel", transaction.CategoryTravel, 1.5},
	{"airbnb", transaction.CategoryTravel, 2.0},
	{"airline", transaction.CategoryTravel, 1.5},
	{"airways", transaction.CategoryTravel, 1.5},
	{"delta air", transaction.CategoryTravel, 2.0},
	{"united airlines", transaction.CategoryTravel, 2.0},
	{"ryanair", transaction.CategoryTravel, 2.0},
	{"expedia", transaction.CategoryTravel, 2.0},
	{"booking.com", transaction.CategoryTravel, 2.0},
	{"flight", transaction.CategoryTravel, 1.5},
	{"hostel", transaction.CategoryTravel, 1.5},
	{"resort", transaction.CategoryTravel, 1.5},

	// insurance
	{"insurance", transaction.CategoryInsurance, 1.5},
	{"geico", transaction.CategoryInsurance, 2.0},
	{"allstate", transaction.CategoryInsurance, 2.0},
	{"state farm", transaction.CategoryInsurance, 2.0},
	{"policy premium", transaction.CategoryInsurance, 2.0},

	// investment
	{"vanguard", transaction.CategoryInvestment, 2.0},
	{"fidelity", transaction.CategoryInvestment, 2.0},
	{"robinhood", transaction.CategoryInvestment, 2.0},
	{"coinbase", transaction.CategoryInvestment, 2.0},
	{"schwab", transaction.CategoryInvestment, 2.0},
	{"etrade", transaction.CategoryInvestment, 2.0},
	{"brokerage", transaction.CategoryInvestment, 1.5},
	{"dividend", transaction.CategoryInvestment, 1.5},
	{"401k", transaction.CategoryInvestment, 2.0},
}
