package cfdi

import "strings"

// NormalizeTag strips a "{namespace}" marker from an element or attribute
// name, so "{http://www.sat.gob.mx/cfd/4}Emisor" becomes "Emisor". Names
// without a marker are returned unchanged.
func NormalizeTag(tag string) string {
	if _, local, found := strings.Cut(tag, "}"); found {
		return local
	}
	return tag
}
