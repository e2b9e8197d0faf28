package currency

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"NGN": "₦",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"GHS": "₵",
	"ZAR": "R",
	"KES": "KSh",
	"CAD": "CA$",
	"AUD": "A$",
}

// Symbol returns the display symbol for a currency code, falling back to the
// raw code for anything unknown.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}
