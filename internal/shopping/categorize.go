package shopping

import (
	"strings"
	"unicode"
)

// Category names used by the keyword categorizer.
const (
	CategoryProduce   = "Fruits & Légumes"
	CategoryMeat      = "Viandes & Poissons"
	CategoryDairy     = "Crèmerie"
	CategoryGrocery   = "Épicerie"
	CategoryBakery    = "Boulangerie"
	CategoryCondiment = "Condiments & Épices"
	CategoryOther     = "Autres"
)

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryMeat, []string{"poulet", "boeuf", "bœuf", "porc", "veau", "agneau", "dinde", "jambon", "lardon", "saumon", "thon", "cabillaud", "crevette", "poisson", "chicken", "beef", "pork", "salmon", "tuna", "fish", "shrimp", "bacon"}},
	{CategoryDairy, []string{"lait", "beurre", "crème", "creme", "fromage", "parmesan", "yaourt", "oeuf", "œuf", "mozzarella", "milk", "butter", "cream", "cheese", "yogurt", "egg"}},
	{CategoryBakery, []string{"pain", "baguette", "brioche", "bread", "tortilla"}},
	{CategoryCondiment, []string{"sel", "poivre", "huile", "vinaigre", "moutarde", "épice", "epice", "paprika", "curry", "cumin", "herbes", "basilic", "persil", "thym", "laurier", "miel", "bouillon", "salt", "pepper", "oil", "vinegar", "mustard", "spice", "honey", "stock"}},
	{CategoryGrocery, []string{"riz", "pâtes", "pates", "farine", "sucre", "avoine", "lentille", "pois chiche", "semoule", "quinoa", "conserve", "rice", "pasta", "flour", "sugar", "oat", "lentil", "chickpea"}},
	{CategoryProduce, []string{"tomate", "oignon", "ail", "poivron", "carotte", "courgette", "aubergine", "pomme", "citron", "salade", "haricot", "champignon", "épinard", "epinard", "laitue", "fruit", "banane", "fraise", "avocat", "concombre", "tomato", "onion", "garlic", "carrot", "zucchini", "lemon", "lettuce", "bean", "mushroom", "spinach", "berr", "banana", "avocado"}},
}

// Categorize assigns an ingredient to an aisle. Keywords match the start of
// a word and the longest match wins. Unknown ingredients land in CategoryOther.
func Categorize(name string) string {
	n := " " + strings.Join(strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	}), " ")

	best, bestLen := CategoryOther, 0
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if len(kw) > bestLen && strings.Contains(n, " "+kw) {
				best, bestLen = c.category, len(kw)
			}
		}
	}
	return best
}
