package views

import (
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// categorySynsets maps ShapeNetCore category names to the WordNet synset
// directory names used in the dataset. It is never mutated.
var categorySynsets = map[string]string{
	"Table":        "04379243",
	"Jar":          "03593526",
	"Skateboard":   "04225987",
	"Car":          "02958343",
	"Bottle":       "02876657",
	"Tower":        "04460130",
	"Chair":        "03001627",
	"Bookshelf":    "02871439",
	"Camera":       "02942699",
	"Airplane":     "02691156",
	"Laptop":       "03642806",
	"Basket":       "02801938",
	"Sofa":         "04256520",
	"Knife":        "03624134",
	"Can":          "02946921",
	"Rifle":        "04090263",
	"Train":        "04468005",
	"Pillow":       "03938244",
	"Lamp":         "03636649",
	"Trash bin":    "02747177",
	"Mailbox":      "03710193",
	"Watercraft":   "04530566",
	"Motorbike":    "03790512",
	"Dishwasher":   "03207941",
	"Bench":        "02828884",
	"Pistol":       "03948459",
	"Rocket":       "04099429",
	"Loudspeaker":  "03691459",
	"File cabinet": "03337140",
	"Bag":          "02773838",
	"Cabinet":      "02933112",
	"Bed":          "02818832",
	"Birdhouse":    "02843684",
	"Display":      "03211117",
	"Piano":        "03928116",
	"Earphone":     "03261776",
	"Telephone":    "04401088",
	"Stove":        "04330267",
	"Microphone":   "03759954",
	"Bus":          "02924116",
	"Mug":          "03797390",
	"Remote":       "04074963",
	"Bathtub":      "02808440",
	"Bowl":         "02880940",
	"Keyboard":     "03085013",
	"Guitar":       "03467517",
	"Washer":       "04554684",
	"Bicycle":      "02834778",
	"Faucet":       "03325088",
	"Printer":      "04004475",
	"Cap":          "02954340",
}

// CategorySynset looks up the synset identifier for a category name.
//
// An exact match is preferred, followed by a case-insensitive match.
// A string which is already a known synset identifier is returned as-is.
func CategorySynset(name string) (string, bool) {
	if id, ok := categorySynsets[name]; ok {
		return id, true
	}
	for category, id := range categorySynsets {
		if strings.EqualFold(category, name) {
			return id, true
		}
	}
	for _, id := range categorySynsets {
		if id == name {
			return id, true
		}
	}
	return "", false
}

// CategoryNames returns every known category name in sorted order.
func CategoryNames() []string {
	names := maps.Keys(categorySynsets)
	sort.Strings(names)
	return names
}
