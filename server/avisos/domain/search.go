package domain

import "strings"

// MatchesQuery reports whether the aviso matches a case-insensitive
// substring query across titulo, telefono, descripcion and categoria.
// The empty query matches every aviso.
func MatchesQuery(a Aviso, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{a.Titulo, a.Telefono, a.Descripcion, a.Categoria} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// FilterAvisos keeps the avisos matching the query, preserving order.
func FilterAvisos(items []Aviso, query string) []Aviso {
	if strings.TrimSpace(query) == "" {
		return items
	}
	out := make([]Aviso, 0, len(items))
	for _, item := range items {
		if MatchesQuery(item, query) {
			out = append(out, item)
		}
	}
	return out
}
