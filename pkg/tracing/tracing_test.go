package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in       string
		host     string
		insecure bool
	}{
		{"localhost:4318", "localhost:4318", true},
		{"http://collector:4318", "collector:4318", true},
		{"https://otel.example.com", "otel.example.com", false},
	}
	for _, tt := range tests {
		host, insecure := normalizeEndpoint(tt.in)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.insecure, insecure, tt.in)
	}
}
