package providers

import (
	"reflect"
	"testing"

	"github.com/pixora-ai/pixora/internal/models"
)

func TestNormalizeHistory(t *testing.T) {
	user := func(s string) models.ChatMessage { return models.ChatMessage{Role: models.RoleUser, Text: s} }
	model := func(s string) models.ChatMessage { return models.ChatMessage{Role: models.RoleModel, Text: s} }

	tests := []struct {
		name string
		in   []models.ChatMessage
		want []models.ChatMessage
	}{
		{"empty", nil, []models.ChatMessage{}},
		{"greeting only", []models.ChatMessage{model("hi")}, []models.ChatMessage{}},
		{
			"drops greeting",
			[]models.ChatMessage{model("hi"), user("q"), model("a")},
			[]models.ChatMessage{user("q"), model("a")},
		},
		{
			"merges repeated roles",
			[]models.ChatMessage{model("hi"), user("q"), model("a"), model("slow down"), user("q2")},
			[]models.ChatMessage{user("q"), model("a\n\nslow down"), user("q2")},
		},
		{
			"skips blank turns",
			[]models.ChatMessage{user("q"), model(""), user("again")},
			[]models.ChatMessage{user("q\n\nagain")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeHistory(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeHistory() = %v, want %v", got, tt.want)
			}
		})
	}
}
