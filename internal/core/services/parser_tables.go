package services

import "github.com/custodia-labs/atlas-core/internal/core/domain"

// Lookup tables for QueryParser. Order matters wherever the first match
// wins: longer and more specific aliases are listed before general ones.

var highlightVerbs = []string{
	"show", "find", "highlight", "map", "locate", "display", "plot", "mark", "point out", "list", "where are", "where is",
}

type sourceAlias struct {
	aliases []string
	ids     []string
}

var sourceAliases = []sourceAlias{
	{[]string{"unesco", "world heritage"}, []string{"unesco"}},
	{[]string{"historic england", "listed monument", "scheduled monument"}, []string{"historic_england"}},
	{[]string{"pleiades"}, []string{"pleiades"}},
	{[]string{"digital atlas of the roman empire", "dare atlas"}, []string{"dare"}},
	{[]string{"wikidata"}, []string{"wikidata"}},
	{[]string{"megalithic portal", "megalithic.co.uk"}, []string{"megalithic"}},
	{[]string{"openstreetmap", "open street map", "osm"}, []string{"osm"}},
}

type featureAlias struct {
	aliases     []string
	featureType string
}

var featureAliases = []featureAlias{
	{[]string{"impact crater", "meteor crater", "meteorite crater", "crater"}, "impact_crater"},
	{[]string{"volcano", "volcanoes", "volcanic", "stratovolcano"}, "volcano"},
}

// defaultFeatureRadiusKm applies when a feature is named without a distance
const defaultFeatureRadiusKm = 50.0

type namedPeriod struct {
	name    string
	aliases []string
	start   int
	end     int
}

var namedPeriods = []namedPeriod{
	{"Roman Republic", []string{"roman republic", "republican rome"}, -509, -27},
	{"Roman Empire", []string{"roman empire", "imperial roman", "imperial rome"}, -27, 476},
	{"Roman", []string{"roman", "romans"}, -753, 476},
	{"Early Bronze Age", []string{"early bronze age"}, -3300, -2000},
	{"Late Bronze Age", []string{"late bronze age"}, -1600, -1200},
	{"Bronze Age", []string{"bronze age"}, -3300, -1200},
	{"Iron Age", []string{"iron age"}, -1200, -50},
	{"Copper Age", []string{"copper age", "chalcolithic"}, -4500, -3300},
	{"Palaeolithic", []string{"palaeolithic", "paleolithic", "old stone age"}, -300000, -10000},
	{"Mesolithic", []string{"mesolithic", "middle stone age"}, -10000, -4000},
	{"Neolithic", []string{"neolithic", "new stone age"}, -7000, -2000},
	{"Minoan", []string{"minoan"}, -3100, -1100},
	{"Mycenaean", []string{"mycenaean", "mycenean"}, -1600, -1100},
	{"Archaic Greek", []string{"archaic greek", "archaic period"}, -800, -480},
	{"Classical Greek", []string{"classical greek", "classical period"}, -480, -323},
	{"Hellenistic", []string{"hellenistic"}, -323, -31},
	{"Ancient Greek", []string{"ancient greek", "greek"}, -800, -31},
	{"Etruscan", []string{"etruscan"}, -900, -27},
	{"Phoenician", []string{"phoenician", "punic", "carthaginian"}, -1500, -146},
	{"Old Kingdom", []string{"old kingdom"}, -2686, -2181},
	{"Middle Kingdom", []string{"middle kingdom"}, -2055, -1650},
	{"New Kingdom", []string{"new kingdom"}, -1550, -1069},
	{"Ptolemaic", []string{"ptolemaic"}, -305, -30},
	{"Ancient Egyptian", []string{"ancient egyptian", "pharaonic", "egyptian"}, -3100, -30},
	{"Sumerian", []string{"sumerian"}, -4500, -1900},
	{"Babylonian", []string{"babylonian"}, -1894, -539},
	{"Assyrian", []string{"assyrian"}, -2500, -609},
	{"Hittite", []string{"hittite"}, -1600, -1178},
	{"Achaemenid", []string{"achaemenid", "persian empire"}, -550, -330},
	{"Byzantine", []string{"byzantine"}, 330, 1453},
	{"Anglo-Saxon", []string{"anglo-saxon", "anglo saxon"}, 410, 1066},
	{"Viking", []string{"viking", "norse"}, 793, 1066},
	{"Pictish", []string{"pictish", "picts"}, 300, 900},
	{"Early Medieval", []string{"early medieval", "dark ages"}, 500, 1000},
	{"Medieval", []string{"medieval", "middle ages"}, 500, 1500},
	{"Olmec", []string{"olmec"}, -1600, -350},
	{"Maya", []string{"mayan", "maya"}, -2000, 1697},
	{"Aztec", []string{"aztec"}, 1300, 1521},
	{"Inca", []string{"inca", "incan"}, 1438, 1533},
}

type namedRegion struct {
	name    string
	aliases []string
	bbox    domain.BoundingBox
}

func box(minLat, minLon, maxLat, maxLon float64) domain.BoundingBox {
	return domain.BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}

var namedRegions = []namedRegion{
	{"Orkney", []string{"orkney"}, box(58.7, -3.5, 59.4, -2.3)},
	{"Crete", []string{"crete"}, box(34.8, 23.5, 35.7, 26.4)},
	{"Sicily", []string{"sicily"}, box(36.6, 12.4, 38.3, 15.7)},
	{"Cyprus", []string{"cyprus"}, box(34.5, 32.2, 35.8, 34.7)},
	{"Malta", []string{"malta"}, box(35.8, 14.1, 36.1, 14.6)},
	{"England", []string{"england"}, box(49.9, -5.7, 55.8, 1.8)},
	{"Scotland", []string{"scotland"}, box(54.6, -7.6, 60.9, -0.7)},
	{"Wales", []string{"wales"}, box(51.3, -5.4, 53.5, -2.6)},
	{"Ireland", []string{"ireland"}, box(51.4, -10.7, 55.4, -5.4)},
	{"Britain", []string{"great britain", "britain", "united kingdom", "uk"}, box(49.9, -8.2, 60.9, 1.8)},
	{"Greece", []string{"greece"}, box(34.8, 19.3, 41.8, 29.7)},
	{"Italy", []string{"italy"}, box(36.6, 6.6, 47.1, 18.5)},
	{"Egypt", []string{"egypt"}, box(22.0, 24.7, 31.7, 36.9)},
	{"France", []string{"france"}, box(41.3, -5.2, 51.1, 9.6)},
	{"Spain", []string{"spain", "iberia"}, box(36.0, -9.4, 43.8, 3.4)},
	{"Portugal", []string{"portugal"}, box(36.9, -9.5, 42.2, -6.2)},
	{"Turkey", []string{"turkey", "anatolia", "asia minor"}, box(35.8, 25.6, 42.1, 44.8)},
	{"Mesopotamia", []string{"mesopotamia"}, box(29.0, 38.0, 37.5, 48.5)},
	{"Levant", []string{"levant", "near east", "middle east"}, box(29.0, 34.0, 37.5, 48.0)},
	{"North Africa", []string{"north africa", "maghreb"}, box(18.0, -17.0, 37.5, 35.0)},
	{"Scandinavia", []string{"scandinavia"}, box(54.5, 4.5, 71.2, 31.6)},
	{"Mediterranean", []string{"mediterranean"}, box(30.0, -6.0, 46.0, 36.2)},
	{"Mexico", []string{"mexico"}, box(14.5, -118.4, 32.7, -86.7)},
	{"Mesoamerica", []string{"mesoamerica", "central america"}, box(7.0, -105.0, 23.0, -77.0)},
	{"Peru", []string{"peru", "andes"}, box(-18.4, -81.4, 0.0, -68.7)},
}

type countryAlias struct {
	alias   string
	country string
}

// countryAliases maps a mention to the country name stored on site records.
var countryAliases = []countryAlias{
	{"united kingdom", "United Kingdom"}, {"great britain", "United Kingdom"}, {"britain", "United Kingdom"},
	{"england", "United Kingdom"}, {"scotland", "United Kingdom"}, {"wales", "United Kingdom"}, {"uk", "United Kingdom"},
	{"ireland", "Ireland"}, {"greece", "Greece"}, {"italy", "Italy"}, {"egypt", "Egypt"}, {"france", "France"},
	{"spain", "Spain"}, {"portugal", "Portugal"}, {"germany", "Germany"}, {"turkey", "Turkey"}, {"cyprus", "Cyprus"},
	{"malta", "Malta"}, {"tunisia", "Tunisia"}, {"libya", "Libya"}, {"morocco", "Morocco"}, {"algeria", "Algeria"},
	{"sudan", "Sudan"}, {"ethiopia", "Ethiopia"}, {"zimbabwe", "Zimbabwe"}, {"jordan", "Jordan"}, {"israel", "Israel"},
	{"lebanon", "Lebanon"}, {"syria", "Syria"}, {"iraq", "Iraq"}, {"iran", "Iran"}, {"india", "India"}, {"china", "China"},
	{"japan", "Japan"}, {"cambodia", "Cambodia"}, {"mexico", "Mexico"}, {"guatemala", "Guatemala"}, {"belize", "Belize"},
	{"honduras", "Honduras"}, {"peru", "Peru"}, {"bolivia", "Bolivia"}, {"denmark", "Denmark"}, {"norway", "Norway"},
	{"sweden", "Sweden"}, {"netherlands", "Netherlands"}, {"belgium", "Belgium"}, {"austria", "Austria"},
	{"switzerland", "Switzerland"}, {"croatia", "Croatia"}, {"bulgaria", "Bulgaria"}, {"romania", "Romania"},
	{"albania", "Albania"}, {"serbia", "Serbia"}, {"hungary", "Hungary"}, {"poland", "Poland"},
}

type siteTypeKeyword struct {
	keyword string
	types   []string
}

var siteTypeKeywords = []siteTypeKeyword{
	{"temple", []string{"temple", "sanctuary", "shrine"}},
	{"sanctuary", []string{"sanctuary", "temple"}},
	{"shrine", []string{"shrine", "sanctuary"}},
	{"church", []string{"church", "monastery"}},
	{"abbey", []string{"monastery", "church"}},
	{"monastery", []string{"monastery", "church"}},
	{"mosque", []string{"mosque"}},
	{"pyramid", []string{"pyramid", "tomb"}},
	{"tomb", []string{"tomb", "burial mound", "necropolis"}},
	{"burial", []string{"tomb", "burial mound", "barrow", "cemetery", "necropolis"}},
	{"grave", []string{"tomb", "cemetery"}},
	{"barrow", []string{"barrow", "burial mound"}},
	{"necropolis", []string{"necropolis", "cemetery"}},
	{"cemetery", []string{"cemetery", "necropolis"}},
	{"megalith", []string{"megalith", "dolmen", "standing stone", "menhir", "stone circle"}},
	{"stone circle", []string{"stone circle", "henge"}},
	{"henge", []string{"henge", "stone circle"}},
	{"dolmen", []string{"dolmen"}},
	{"standing stone", []string{"standing stone", "menhir"}},
	{"menhir", []string{"menhir", "standing stone"}},
	{"cairn", []string{"cairn"}},
	{"hillfort", []string{"hillfort", "fort"}},
	{"fortress", []string{"fortress", "fort", "castle"}},
	{"fort", []string{"fort", "fortress", "hillfort"}},
	{"castle", []string{"castle", "fortress"}},
	{"settlement", []string{"settlement", "village", "town"}},
	{"village", []string{"village", "settlement"}},
	{"town", []string{"town", "settlement", "city"}},
	{"city", []string{"city", "town"}},
	{"villa", []string{"villa"}},
	{"palace", []string{"palace"}},
	{"amphitheatre", []string{"amphitheatre"}},
	{"amphitheater", []string{"amphitheatre"}},
	{"colosseum", []string{"amphitheatre"}},
	{"theatre", []string{"theatre"}},
	{"theater", []string{"theatre"}},
	{"stadium", []string{"stadium"}},
	{"bath", []string{"bath"}},
	{"aqueduct", []string{"aqueduct"}},
	{"bridge", []string{"bridge"}},
	{"road", []string{"road"}},
	{"rock art", []string{"rock art", "cave"}},
	{"petroglyph", []string{"rock art"}},
	{"cave painting", []string{"rock art", "cave"}},
	{"cave", []string{"cave"}},
	{"mine", []string{"mine"}},
	{"quarry", []string{"quarry"}},
	{"harbour", []string{"harbour"}},
	{"harbor", []string{"harbour"}},
	{"shipwreck", []string{"shipwreck"}},
	{"geoglyph", []string{"geoglyph", "earthwork"}},
	{"earthwork", []string{"earthwork", "mound"}},
	{"mound", []string{"mound", "burial mound"}},
	{"oppidum", []string{"oppidum", "hillfort"}},
	{"broch", []string{"broch"}},
	{"crannog", []string{"crannog"}},
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "from": true, "by": true, "with": true, "near": true, "around": true, "about": true,
	"me": true, "my": true, "i": true, "we": true, "us": true, "you": true, "it": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "that": true, "this": true, "these": true, "those": true, "there": true,
	"what": true, "which": true, "where": true, "when": true, "who": true, "how": true, "any": true, "all": true,
	"some": true, "please": true, "can": true, "could": true, "would": true, "give": true, "tell": true,
	"site": true, "sites": true, "ancient": true, "old": true, "older": true, "newer": true, "younger": true,
	"than": true, "before": true, "after": true, "since": true, "within": true, "km": true, "kms": true,
	"kilometers": true, "kilometres": true, "mile": true, "miles": true, "mi": true, "bc": true, "bce": true,
	"ad": true, "ce": true, "year": true, "years": true, "ago": true, "century": true, "centuries": true,
	"period": true, "era": true, "age": true, "out": true, "close": true,
}
