package config

// CategoryKeyword maps a lowercase substring to a canonical listing category.
type CategoryKeyword struct {
	Keyword  string
	Category string
}

// CategoryKeywords is scanned in order; the first keyword contained in the
// raw category text wins. Order therefore matters and must stay stable.
var CategoryKeywords = []CategoryKeyword{
	{Keyword: "apartment", Category: "apartment"},
	{Keyword: "wohnung", Category: "apartment"},
	{Keyword: "appartement", Category: "apartment"},
	{Keyword: "flat", Category: "apartment"},
	{Keyword: "studio", Category: "apartment"},
	{Keyword: "attika", Category: "apartment"},
	{Keyword: "loft", Category: "apartment"},
	{Keyword: "house", Category: "house"},
	{Keyword: "haus", Category: "house"},
	{Keyword: "maison", Category: "house"},
	{Keyword: "villa", Category: "house"},
	{Keyword: "chalet", Category: "house"},
	{Keyword: "rustico", Category: "house"},
	{Keyword: "ground", Category: "ground"},
	{Keyword: "grundstück", Category: "ground"},
	{Keyword: "grundstueck", Category: "ground"},
	{Keyword: "bauland", Category: "ground"},
	{Keyword: "terrain", Category: "ground"},
	{Keyword: "parzelle", Category: "ground"},
	{Keyword: "plot", Category: "ground"},
	{Keyword: "commercial", Category: "commercial"},
	{Keyword: "gewerbe", Category: "commercial"},
	{Keyword: "büro", Category: "commercial"},
	{Keyword: "buero", Category: "commercial"},
	{Keyword: "bureau", Category: "commercial"},
	{Keyword: "office", Category: "commercial"},
	{Keyword: "laden", Category: "commercial"},
	{Keyword: "commerce", Category: "commercial"},
}

// GroundFloorSynonyms are matched against the whole trimmed, lowercased
// floor label. Labels with no digits that are not listed here also fall
// back to 0, so top-floor names collapse onto the ground floor as well.
var GroundFloorSynonyms = []string{
	"ground",
	"ground floor",
	"g",
	"gf",
	"eg",
	"erdgeschoss",
	"parterre",
	"rez-de-chaussée",
	"rez-de-chaussee",
	"rdc",
	"pianterreno",
}

// ParkingKeywords are searched as substrings in every string-valued field
// of a raw record. Entries must be lowercase.
var ParkingKeywords = []string{
	"parking",
	"garage",
	"parkplatz",
	"tiefgarage",
	"stellplatz",
	"carport",
	"einstellplatz",
	"parkhaus",
	"place de parc",
	"posteggio",
}

// IsGroundFloorSynonym reports whether the given label (already trimmed and
// lowercased) names the ground floor.
func IsGroundFloorSynonym(label string) bool {
	for _, syn := range GroundFloorSynonyms {
		if label == syn {
			return true
		}
	}
	return false
}
