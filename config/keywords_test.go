package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryKeywordsAreLowercase(t *testing.T) {
	for _, kw := range CategoryKeywords {
		assert.Equal(t, strings.ToLower(kw.Keyword), kw.Keyword,
			"keyword %q must be lowercase", kw.Keyword)
	}
}

func TestCategoryKeywordsTargetKnownCategories(t *testing.T) {
	valid := map[string]bool{
		"apartment":  true,
		"house":      true,
		"ground":     true,
		"commercial": true,
	}
	for _, kw := range CategoryKeywords {
		assert.True(t, valid[kw.Category], "keyword %q maps to unknown category %q", kw.Keyword, kw.Category)
	}
}

func TestIsGroundFloorSynonym(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  bool
	}{
		{name: "english", label: "ground", want: true},
		{name: "german abbreviation", label: "eg", want: true},
		{name: "german full", label: "erdgeschoss", want: true},
		{name: "french", label: "rez-de-chaussée", want: true},
		{name: "french ascii", label: "rez-de-chaussee", want: true},
		{name: "numeric label", label: "3rd floor", want: false},
		{name: "empty", label: "", want: false},
		{name: "top floor label", label: "penthouse", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGroundFloorSynonym(tt.label))
		})
	}
}

func TestParkingKeywordsAreLowercase(t *testing.T) {
	for _, kw := range ParkingKeywords {
		assert.Equal(t, strings.ToLower(kw), kw)
	}
}
