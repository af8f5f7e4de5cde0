package age

// Category is a demographic age bucket.
type Category string

const (
	Infant     Category = "infant"
	Toddler    Category = "toddler"
	Child      Category = "child"
	Adolescent Category = "adolescent"
	YoungAdult Category = "young-adult"
	MiddleAged Category = "middle-aged"
	Elderly    Category = "elderly"
	Unknown    Category = "unknown"
)

// Categories lists every bucket in age order, Unknown last.
var Categories = []Category{Infant, Toddler, Child, Adolescent, YoungAdult, MiddleAged, Elderly, Unknown}

// Categorize buckets raw by total months. Zero months is Unknown, whether
// the text was unparseable or literally "0 bulan".
func Categorize(raw string) Category {
	return CategorizeValue(Parse(raw))
}

// CategorizeValue is Categorize for an already parsed value.
func CategorizeValue(v Value) Category {
	months := v.TotalMonths()
	switch {
	case months == 0:
		return Unknown
	case months <= 12:
		return Infant
	case months <= 60:
		return Toddler
	case months <= 144:
		return Child
	case months <= 228:
		return Adolescent
	case months <= 420:
		return YoungAdult
	case months <= 660:
		return MiddleAged
	default:
		return Elderly
	}
}

// CategorizeSimple buckets raw by whole years, the scheme used for the
// dashboard distribution. It can disagree with Categorize near the
// boundaries: "12 tahun" is Child here and Child there, but "5 tahun 6 bulan"
// is Toddler here and Child there. There is no upper bound.
func CategorizeSimple(raw string) Category {
	return CategorizeSimpleValue(Parse(raw))
}

// CategorizeSimpleValue is CategorizeSimple for an already parsed value.
func CategorizeSimpleValue(v Value) Category {
	if !v.Valid {
		return Unknown
	}
	switch y := v.Years; {
	case y < 1:
		return Infant
	case y <= 5:
		return Toddler
	case y <= 12:
		return Child
	case y <= 19:
		return Adolescent
	case y <= 35:
		return YoungAdult
	case y <= 55:
		return MiddleAged
	default:
		return Elderly
	}
}
