package categorization

// Category names used by the seeded rules. Callers may use any string.
const (
	CategoryGroceries     = "groceries"
	CategoryRestaurants   = "restaurants"
	CategoryTransport     = "transport"
	CategorySubscriptions = "subscriptions"
	CategoryTelecom       = "telecom"
	CategoryShopping      = "shopping"
	CategoryUtilities     = "utilities"
	CategoryFees          = "fees"
	CategoryCash          = "cash"
	CategoryIncome        = "income"
)

// Rule maps a substring of a merchant name or description to a category.
// Patterns may carry SQL-style % wildcards at either end; they are stripped.
type Rule struct {
	Pattern   string `json:"pattern"`
	Category  string `json:"category"`
	CleanName string `json:"cleanName,omitempty"`
	Priority  int    `json:"priority"`
	// User marks rules added at runtime. They win over seeded ones.
	User bool `json:"user"`
}

// DefaultRules is the seeded merchant list for EU statements.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "LIDL", Category: CategoryGroceries, CleanName: "Lidl"},
		{Pattern: "ALDI", Category: CategoryGroceries, CleanName: "Aldi"},
		{Pattern: "CARREFOUR", Category: CategoryGroceries, CleanName: "Carrefour"},
		{Pattern: "MONOPRIX", Category: CategoryGroceries, CleanName: "Monoprix"},
		{Pattern: "PINGO DOCE", Category: CategoryGroceries, CleanName: "Pingo Doce"},
		{Pattern: "CONTINENTE", Category: CategoryGroceries, CleanName: "Continente"},
		{Pattern: "INTERMARCHE", Category: CategoryGroceries, CleanName: "Intermarch\u00e9"},
		{Pattern: "MERCADONA", Category: CategoryGroceries, CleanName: "Mercadona"},
		{Pattern: "MCDONALD", Category: CategoryRestaurants, CleanName: "McDonald's"},
		{Pattern: "STARBUCKS", Category: CategoryRestaurants, CleanName: "Starbucks"},
		{Pattern: "UBER EATS", Category: CategoryRestaurants, CleanName: "Uber Eats", Priority: 10},
		{Pattern: "DELIVEROO", Category: CategoryRestaurants, CleanName: "Deliveroo"},
		{Pattern: "GLOVO", Category: CategoryRestaurants, CleanName: "Glovo"},
		{Pattern: "UBER", Category: CategoryTransport, CleanName: "Uber"},
		{Pattern: "BOLT", Category: CategoryTransport, CleanName: "Bolt"},
		{Pattern: "SNCF", Category: CategoryTransport, CleanName: "SNCF"},
		{Pattern: "RATP", Category: CategoryTransport, CleanName: "RATP"},
		{Pattern: "GALP", Category: CategoryTransport, CleanName: "Galp"},
		{Pattern: "TOTALENERGIES", Category: CategoryTransport, CleanName: "TotalEnergies"},
		{Pattern: "TESLA", Category: CategoryTransport, CleanName: "Tesla"},
		{Pattern: "NETFLIX", Category: CategorySubscriptions, CleanName: "Netflix"},
		{Pattern: "SPOTIFY", Category: CategorySubscriptions, CleanName: "Spotify"},
		{Pattern: "DISNEY PLUS", Category: CategorySubscriptions, CleanName: "Disney+"},
		{Pattern: "APPLE.COM", Category: CategorySubscriptions, CleanName: "Apple"},
		{Pattern: "GOOGLE", Category: CategorySubscriptions, CleanName: "Google"},
		{Pattern: "FREE MOBILE", Category: CategoryTelecom, CleanName: "Free Mobile"},
		{Pattern: "ORANGE", Category: CategoryTelecom, CleanName: "Orange"},
		{Pattern: "DIGI", Category: CategoryTelecom, CleanName: "Digi"},
		{Pattern: "VODAFONE", Category: CategoryTelecom, CleanName: "Vodafone"},
		{Pattern: "AMAZON", Category: CategoryShopping, CleanName: "Amazon"},
		{Pattern: "PAYPAL", Category: CategoryShopping, CleanName: "PayPal"},
		{Pattern: "FNAC", Category: CategoryShopping, CleanName: "Fnac"},
		{Pattern: "IKEA", Category: CategoryShopping, CleanName: "IKEA"},
		{Pattern: "EDF", Category: CategoryUtilities, CleanName: "EDF"},
		{Pattern: "ENDESA", Category: CategoryUtilities, CleanName: "Endesa"},
		{Pattern: "EDP", Category: CategoryUtilities, CleanName: "EDP"},
		{Pattern: "STAMP DUTY", Category: CategoryFees, CleanName: "Stamp duty"},
		{Pattern: "ACCOUNT MAINTENANCE", Category: CategoryFees, CleanName: "Account maintenance"},
		{Pattern: "COMISSAO", Category: CategoryFees, CleanName: "Bank fee"},
		{Pattern: "CASH WITHDRAWAL", Category: CategoryCash, CleanName: "Cash withdrawal"},
		{Pattern: "RETRAIT", Category: CategoryCash, CleanName: "Cash withdrawal"},
		{Pattern: "LEVANTAMENTO", Category: CategoryCash, CleanName: "Cash withdrawal"},
		{Pattern: "SALAIRE", Category: CategoryIncome, CleanName: "Salary"},
		{Pattern: "SALARIO", Category: CategoryIncome, CleanName: "Salary"},
		{Pattern: "CASHBACK", Category: CategoryIncome, CleanName: "Cashback"},
	}
}
