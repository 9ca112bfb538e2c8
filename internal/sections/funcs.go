package sections

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	gridColumns = map[int]string{
		2: "grid-cols-1 sm:grid-cols-2",
		3: "grid-cols-1 sm:grid-cols-2 lg:grid-cols-3",
		4: "grid-cols-2 sm:grid-cols-3 lg:grid-cols-4",
		5: "grid-cols-2 sm:grid-cols-3 lg:grid-cols-5",
	}
	ratioClasses = map[string]string{
		"square":    "aspect-square",
		"portrait":  "aspect-[3/4]",
		"landscape": "aspect-[4/3]",
	}
	alignClasses = map[string]string{
		"left":   "text-left",
		"center": "text-center",
		"right":  "text-right",
	}
	heightClasses = map[string]string{
		"small":  "min-h-[300px]",
		"medium": "min-h-[450px]",
		"large":  "min-h-[600px]",
		"full":   "min-h-screen",
	}
	widthClasses = map[string]string{
		"small":  "max-w-xl",
		"medium": "max-w-3xl",
		"large":  "max-w-5xl",
		"full":   "max-w-none",
	}
	paddingClasses = map[string]string{
		"small":  "py-8",
		"medium": "py-12",
		"large":  "py-20",
	}
	imageWidthClasses = map[string]string{
		"small":  "md:w-1/3",
		"medium": "md:w-1/2",
		"large":  "md:w-2/3",
	}
	verticalClasses = map[string]string{
		"top":    "items-start",
		"center": "items-center",
		"bottom": "items-end",
	}
)

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|rgba?\([0-9\s.,%]+\))$`)

func templateFuncs(rich *RichText) template.FuncMap {
	return template.FuncMap{
		"price":    FormatPrice,
		"richtext": rich.HTML,
		"sanitize": rich.Sanitize,
		"color":    cssColor,
		"columns":  classFor(gridColumns, 3),
		"ratio":    classFor(ratioClasses, "square"),
		"align":    classFor(alignClasses, "center"),
		"height":   classFor(heightClasses, "large"),
		"maxwidth": classFor(widthClasses, "medium"),
		"padding":  classFor(paddingClasses, "medium"),
		"imgwidth": classFor(imageWidthClasses, "medium"),
		"valign":   classFor(verticalClasses, "center"),
		"plural":   plural,
		"stars":    stars,
		"first":    firstNonEmpty,
	}
}

func classFor[K comparable](classes map[K]string, fallback K) func(K) string {
	return func(key K) string {
		if class, ok := classes[key]; ok {
			return class
		}
		return classes[fallback]
	}
}

// FormatPrice renders an amount as US dollars, e.g. "$1,234.50".
func FormatPrice(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	fixed := amount.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	return sign + "$" + grouped.String() + "." + cents
}

func cssColor(value string) template.CSS {
	value = strings.TrimSpace(value)
	if !colorPattern.MatchString(value) {
		return ""
	}
	return template.CSS(value)
}

func plural(count int, singular, pluralForm string) string {
	if count == 1 {
		return singular
	}
	return pluralForm
}

func stars(rating int) []bool {
	out := make([]bool, 5)
	for i := range out {
		out[i] = i < rating
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
