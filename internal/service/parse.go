package service

import "strings"

// extractJSON limpia la respuesta cruda del LLM: quita fences de markdown
// y se queda con el span {...} más externo. Devuelve "" si no hay objeto.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// si vino en un bloque ```json ... ```, quedarse con el contenido
	if strings.Contains(s, "```") {
		parts := strings.Split(s, "```")
		if len(parts) >= 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(strings.TrimSpace(s), "json")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
