package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{"File an  RTI", []string{"File ", "an ", "RTI"}},
		{"Step 1\nStep 2", []string{"Step ", "1", "\n", "Step ", "2"}},
		{"मेरा सवाल", []string{"मेरा ", "सवाल"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkText(tt.in))
		})
	}
}

func TestChunkTextReassembles(t *testing.T) {
	text := "VERIFICATION STATUS: FALSE\nEXPLANATION:\nPIB has denied the claim."
	assert.Equal(t, text, strings.Join(chunkText(text), ""))
}

func TestCheckMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     wsRequest
		wantErr string
	}{
		{"valid", wsRequest{Type: "query", Content: "Who is my MP?", Language: "hindi"}, ""},
		{"empty content", wsRequest{Type: "query", Content: "  "}, "query is required"},
		{"unknown language", wsRequest{Type: "query", Content: "RTI", Language: "klingon"}, "unsupported language"},
		{"too long", wsRequest{Type: "query", Content: strings.Repeat("a", 5001)}, "exceeds maximum length"},
		{"script injection", wsRequest{Type: "query", Content: "<script>alert(1)</script>"}, "Invalid input content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkMessage(tt.msg)
			if tt.wantErr == "" {
				assert.Nil(t, err)
				return
			}
			if assert.NotNil(t, err) {
				assert.Contains(t, err.Message, tt.wantErr)
			}
		})
	}
}
