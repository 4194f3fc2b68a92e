package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "page1.jpg", "page1.jpg", 0},
		{"numeric run", "page9.jpg", "page10.jpg", -1},
		{"numeric run reversed", "page10.jpg", "page9.jpg", 1},
		{"plain lexicographic", "apple", "banana", -1},
		{"prefix shorter first", "page", "page1", -1},
		{"leading zeros equal value", "page01.jpg", "page1.jpg", 0},
		{"mixed digit and letter", "1a", "a1", -1},
		{"long digit runs", "img123456789012345678901", "img123456789012345678902", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NaturalCompare(tt.a, tt.b))
		})
	}
}

func TestNaturalSort(t *testing.T) {
	items := []string{"page10.jpg", "page1.jpg", "page9.jpg", "page2.jpg"}
	NaturalSort(items)
	assert.Equal(t, []string{"page1.jpg", "page2.jpg", "page9.jpg", "page10.jpg"}, items)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jane Doe", "jane-doe"},
		{"slow_burn", "slow-burn"},
		{"SLOW-BURN", "slow-burn"},
		{"  multi   word ", "multi-word"},
		{"--leading--", "leading"},
		{"Comic LO 2023-05", "comic-lo-2023-05"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.input), "input %q", tt.input)
	}
}
