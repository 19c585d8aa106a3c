package blob

import "strings"

// Namespaces maps CURIE prefixes to their IRI bases.
var Namespaces = map[string]string{
	"apinatomy": "https://apinatomy.org/uris/readable/",
	"ilxtr":     "http://uri.interlex.org/tgbugs/uris/readable/",
	"BFO":       "http://purl.obolibrary.org/obo/BFO_",
	"CHEBI":     "http://purl.obolibrary.org/obo/CHEBI_",
	"FMA":       "http://purl.org/sig/ont/fma/fma",
	"ILX":       "http://uri.interlex.org/base/ilx_",
	"NCBITaxon": "http://purl.obolibrary.org/obo/NCBITaxon_",
	"NLX":       "http://uri.neuinfo.org/nif/nifstd/nlx_",
	"PATO":      "http://purl.obolibrary.org/obo/PATO_",
	"RO":        "http://purl.obolibrary.org/obo/RO_",
	"SAO":       "http://uri.neuinfo.org/nif/nifstd/sao",
	"UBERON":    "http://purl.obolibrary.org/obo/UBERON_",
}

// Expand turns a CURIE into a full IRI. Identifiers with an unknown prefix,
// or no prefix at all, are returned unchanged.
func Expand(curie string) string {
	prefix, local, ok := strings.Cut(curie, ":")
	if !ok {
		return curie
	}
	if base, known := Namespaces[prefix]; known {
		return base + local
	}
	return curie
}

// Compact turns a full IRI into a CURIE using the longest matching base.
// IRIs outside every known namespace are returned unchanged.
func Compact(iri string) string {
	var prefix, base string
	for p, b := range Namespaces {
		if strings.HasPrefix(iri, b) && len(b) > len(base) {
			prefix, base = p, b
		}
	}
	if base == "" {
		return iri
	}
	return prefix + ":" + strings.TrimPrefix(iri, base)
}

// Prefix returns the CURIE prefix of id, or "" when id has none.
func Prefix(id string) string {
	prefix, _, ok := strings.Cut(id, ":")
	if !ok {
		return ""
	}
	return prefix
}
