package translate

import "strings"

// fallbackDictionaries holds the per-language substitution tables used when
// the provider is unavailable. The tables cover the factory vocabulary that
// appears on operational screens; everything else passes through untouched.
// Kept as data so languages and terms can be extended without touching
// control flow.
var fallbackDictionaries = map[string]map[string]string{
	"es": {
		"chocolate": "chocolate",
		"cocoa":     "cacao",
		"milk":      "leche",
		"dark":      "oscuro",
		"white":     "blanco",
		"batch":     "lote",
		"inventory": "inventario",
		"order":     "pedido",
		"quality":   "calidad",
		"warehouse": "almacén",
		"recipe":    "receta",
	},
	"fr": {
		"chocolate": "chocolat",
		"cocoa":     "cacao",
		"milk":      "lait",
		"dark":      "noir",
		"white":     "blanc",
		"batch":     "lot",
		"inventory": "inventaire",
		"order":     "commande",
		"quality":   "qualité",
		"warehouse": "entrepôt",
		"recipe":    "recette",
	},
	"de": {
		"chocolate": "Schokolade",
		"cocoa":     "Kakao",
		"milk":      "Milch",
		"dark":      "dunkel",
		"white":     "weiß",
		"batch":     "Charge",
		"inventory": "Bestand",
		"order":     "Bestellung",
		"quality":   "Qualität",
		"warehouse": "Lager",
		"recipe":    "Rezept",
	},
	"pt": {
		"chocolate": "chocolate",
		"cocoa":     "cacau",
		"milk":      "leite",
		"dark":      "amargo",
		"white":     "branco",
		"batch":     "lote",
		"inventory": "estoque",
		"order":     "pedido",
		"quality":   "qualidade",
		"warehouse": "armazém",
		"recipe":    "receita",
	},
}

// fallbackTranslate produces a deterministic substitution translation: known
// terms are replaced from the language's dictionary and the result carries a
// language-tagged prefix so it is never mistaken for a real translation.
func fallbackTranslate(text, targetLanguage string) string {
	lang := strings.ToLower(targetLanguage)
	result := text

	if dict, ok := fallbackDictionaries[lang]; ok {
		for term, replacement := range dict {
			result = replaceFold(result, term, replacement)
		}
	}

	return "[" + lang + "] " + result
}

// replaceFold replaces whole-word, case-insensitive occurrences of term.
func replaceFold(s, term, replacement string) string {
	var sb strings.Builder
	lower := strings.ToLower(s)
	lterm := strings.ToLower(term)

	for i := 0; i < len(s); {
		j := strings.Index(lower[i:], lterm)
		if j < 0 {
			sb.WriteString(s[i:])
			break
		}
		start := i + j
		end := start + len(lterm)

		if isWordBoundary(lower, start, end) {
			sb.WriteString(s[i:start])
			sb.WriteString(replacement)
		} else {
			sb.WriteString(s[i:end])
		}
		i = end
	}
	return sb.String()
}

func isWordBoundary(s string, start, end int) bool {
	before := start == 0 || !isLetter(s[start-1])
	after := end == len(s) || !isLetter(s[end])
	return before && after
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
