package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"objeto pelado", `{"a":1}`, `{"a":1}`},
		{"fence con etiqueta json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence sin etiqueta", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"texto alrededor", "Claro, acá va:\n{\"a\":1}\nEspero que sirva.", `{"a":1}`},
		{"objeto anidado", `resultado: {"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"sin objeto", "no pude generar nada", ""},
		{"vacío", "", ""},
		{"llaves al revés", "} {", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}
