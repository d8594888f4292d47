// Package crawl holds Dungeon Crawl Stone Soup lookup data.
package crawl

import "sort"

// Name is a species, background or god entry.
type Name struct {
	Code     string
	Name     string
	Playable bool
}

// Each table holds one entry per code, so a code is either playable or not.
var species = map[string]Name{
	"Ce": {"Ce", "Centaur", true},
	"DD": {"DD", "Deep Dwarf", true},
	"DE": {"DE", "Deep Elf", true},
	"Dg": {"Dg", "Demigod", true},
	"Dr": {"Dr", "Draconian", true},
	"Ds": {"Ds", "Demonspawn", true},
	"Fe": {"Fe", "Felid", true},
	"Fo": {"Fo", "Formicid", true},
	"Gh": {"Gh", "Ghoul", true},
	"Gr": {"Gr", "Gargoyle", true},
	"HE": {"HE", "High Elf", true},
	"HO": {"HO", "Hill Orc", true},
	"Ha": {"Ha", "Halfling", true},
	"Hu": {"Hu", "Human", true},
	"Ko": {"Ko", "Kobold", true},
	"Mf": {"Mf", "Merfolk", true},
	"Mi": {"Mi", "Minotaur", true},
	"Mu": {"Mu", "Mummy", true},
	"Na": {"Na", "Naga", true},
	"Op": {"Op", "Octopode", true},
	"Og": {"Og", "Ogre", true},
	"Sp": {"Sp", "Spriggan", true},
	"Te": {"Te", "Tengu", true},
	"Tr": {"Tr", "Troll", true},
	"VS": {"VS", "Vine Stalker", true},
	"Vp": {"Vp", "Vampire", true},

	"El": {"El", "Elf", false},
	"Gn": {"Gn", "Gnome", false},
	"OM": {"OM", "Ogre-Mage", false},
	"HD": {"HD", "Hill Dwarf", false},
	"MD": {"MD", "Mountain Dwarf", false},
	"GE": {"GE", "Grey Elf", false},
	"SE": {"SE", "Sludge Elf", false},
	"LO": {"LO", "Lava Orc", false},
	"Dj": {"Dj", "Djinni", false},
	"Pl": {"Pl", "Plutonian", false},
}

var backgrounds = map[string]Name{
	"AE": {"AE", "Air Elementalist", true},
	"AK": {"AK", "Abyssal Knight", true},
	"AM": {"AM", "Arcane Marksman", true},
	"Ar": {"Ar", "Artificer", true},
	"As": {"As", "Assassin", true},
	"Be": {"Be", "Berserker", true},
	"CK": {"CK", "Chaos Knight", true},
	"Cj": {"Cj", "Conjurer", true},
	"EE": {"EE", "Earth Elementalist", true},
	"En": {"En", "Enchanter", true},
	"FE": {"FE", "Fire Elementalist", true},
	"Fi": {"Fi", "Fighter", true},
	"Gl": {"Gl", "Gladiator", true},
	"Hu": {"Hu", "Hunter", true},
	"IE": {"IE", "Ice Elementalist", true},
	"Mo": {"Mo", "Monk", true},
	"Ne": {"Ne", "Necromancer", true},
	"Sk": {"Sk", "Skald", true},
	"Su": {"Su", "Summoner", true},
	"Tm": {"Tm", "Transmuter", true},
	"VM": {"VM", "Venom Mage", true},
	"Wn": {"Wn", "Wanderer", true},
	"Wr": {"Wr", "Warper", true},
	"Wz": {"Wz", "Wizard", true},

	"Cr": {"Cr", "Crusader", false},
	"DK": {"DK", "Death Knight", false},
	"He": {"He", "Healer", false},
	"Pa": {"Pa", "Paladin", false},
	"Pr": {"Pr", "Priest", false},
	"Re": {"Re", "Reaver", false},
	"St": {"St", "Stalker", false},
	"Th": {"Th", "Thief", false},
	"Jr": {"Jr", "Jester", false},
}

var gods = map[string]Name{
	"Ashenzari":       {"Ashenzari", "Ashenzari", true},
	"Atheist":         {"Atheist", "Atheist", true},
	"Beogh":           {"Beogh", "Beogh", true},
	"Cheibriados":     {"Cheibriados", "Cheibriados", true},
	"Dithmenos":       {"Dithmenos", "Dithmenos", true},
	"Elyvilon":        {"Elyvilon", "Elyvilon", true},
	"Fedhas":          {"Fedhas", "Fedhas", true},
	"Gozag":           {"Gozag", "Gozag", true},
	"Hepliaklqana":    {"Hepliaklqana", "Hepliaklqana", true},
	"Jiyva":           {"Jiyva", "Jiyva", true},
	"Kikubaaqudgha":   {"Kikubaaqudgha", "Kikubaaqudgha", true},
	"Lugonu":          {"Lugonu", "Lugonu", true},
	"Makhleb":         {"Makhleb", "Makhleb", true},
	"Nemelex Xobeh":   {"Nemelex Xobeh", "Nemelex Xobeh", true},
	"Okawaru":         {"Okawaru", "Okawaru", true},
	"Qazlal":          {"Qazlal", "Qazlal", true},
	"Ru":              {"Ru", "Ru", true},
	"Sif Muna":        {"Sif Muna", "Sif Muna", true},
	"The Shining One": {"The Shining One", "The Shining One", true},
	"Trog":            {"Trog", "Trog", true},
	"Uskayaw":         {"Uskayaw", "Uskayaw", true},
	"Vehumet":         {"Vehumet", "Vehumet", true},
	"Xom":             {"Xom", "Xom", true},
	"Yredelemnul":     {"Yredelemnul", "Yredelemnul", true},
	"Zin":             {"Zin", "Zin", true},

	"Pakellas": {"Pakellas", "Pakellas", false},
}

var godFixups = map[string]string{
	// The in-game spelling is lower case.
	"the Shining One": "The Shining One",
	"Dithmengos":      "Dithmenos",
}

// Species looks up a species by its two-letter code.
func Species(code string) (Name, bool) {
	n, ok := species[code]
	return n, ok
}

// Background looks up a background by its two-letter code.
func Background(code string) (Name, bool) {
	n, ok := backgrounds[code]
	return n, ok
}

// God looks up a god by name after applying FixGodName.
func God(name string) (Name, bool) {
	n, ok := gods[FixGodName(name)]
	return n, ok
}

// SpeciesName returns the species name or the code when unknown.
func SpeciesName(code string) string {
	if n, ok := species[code]; ok {
		return n.Name
	}
	return code
}

// BackgroundName returns the background name or the code when unknown.
func BackgroundName(code string) string {
	if n, ok := backgrounds[code]; ok {
		return n.Name
	}
	return code
}

// FixGodName normalises historical god spellings.
func FixGodName(name string) string {
	if fixed, ok := godFixups[name]; ok {
		return fixed
	}
	return name
}

// SplitCombo splits a combo such as "MiBe" into species and background codes.
func SplitCombo(char string) (string, string) {
	if len(char) < 2 {
		return char, ""
	}
	return char[:2], char[2:]
}

// FullCharacter expands a combo into "Species Background".
func FullCharacter(char string) string {
	sp, bg := SplitCombo(char)
	if bg == "" {
		return SpeciesName(sp)
	}
	return SpeciesName(sp) + " " + BackgroundName(bg)
}

// PlayableSpecies lists playable species sorted by code.
func PlayableSpecies() []Name { return filter(species, true) }

// PlayableBackgrounds lists playable backgrounds sorted by code.
func PlayableBackgrounds() []Name { return filter(backgrounds, true) }

// PlayableGods lists playable gods sorted by name.
func PlayableGods() []Name { return filter(gods, true) }

func filter(table map[string]Name, playable bool) []Name {
	out := make([]Name, 0, len(table))
	for _, n := range table {
		if n.Playable == playable {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
