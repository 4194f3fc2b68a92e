package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    Format
	}{
		{"koromo json", "info.json", `{"Title": "x", "Artist": ["a"]}`, FormatKoromo},
		{"json without dialect markers", "info.json", `{"title": "x"}`, FormatUnknown},
		{"anchira yaml", "info.yaml", "title: x", FormatAnchira},
		{"anchira yml", "info.yml", "title: x", FormatAnchira},
		{"image", "page1.jpg", "", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.file, []byte(tt.content)))
		})
	}
}

func TestParseKoromo(t *testing.T) {
	content := `{
		"Title": "Glass Garden",
		"Artist": ["Jane Doe"],
		"Circle": "Night Works",
		"Magazine": ["Monthly Glass"],
		"Tags": ["male:glasses", "Other:Vanilla", "story"],
		"Released": 1683072000,
		"Thumb": 2,
		"URL": "https://example.com/g/1"
	}`

	r, err := Parse(FormatKoromo, []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "Glass Garden", r.Title)
	assert.Equal(t, []string{"Jane Doe"}, r.Artists)
	assert.Equal(t, []string{"Night Works"}, r.Circles, "single string tolerated")
	assert.Equal(t, 2, r.Thumbnail)
	require.NotNil(t, r.ReleasedAt)
	assert.Equal(t, time.Date(2023, 5, 3, 0, 0, 0, 0, time.UTC), *r.ReleasedAt)

	require.Len(t, r.Tags, 3)
	assert.Equal(t, TagEntry{Name: "glasses", Namespace: "male"}, r.Tags[0])
	assert.Equal(t, TagEntry{Name: "Vanilla", Namespace: "misc"}, r.Tags[1], "other maps to misc")
	assert.Equal(t, TagEntry{Name: "story"}, r.Tags[2])

	require.Len(t, r.Sources, 1)
	assert.Equal(t, "https://example.com/g/1", r.Sources[0].URL)
}

func TestParseAnchira(t *testing.T) {
	content := `
title: Glass Garden
artists:
  - Jane Doe
circles:
  - Night Works
tags:
  - "female:ponytail"
  - vanilla
released: 1683072000
thumbnail: 1
url: https://example.com/g/2
source: https://mirror.example.com/2
`

	r, err := Parse(FormatAnchira, []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "Glass Garden", r.Title)
	assert.Equal(t, []string{"Jane Doe"}, r.Artists)
	require.Len(t, r.Tags, 2)
	assert.Equal(t, TagEntry{Name: "ponytail", Namespace: "female"}, r.Tags[0])
	assert.Len(t, r.Sources, 2)
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse(FormatUnknown, nil)
	assert.Error(t, err)
}

func TestFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		title   string
		artists []string
		circles []string
		events  []string
	}{
		{
			"full convention",
			"(Comic Fair 2023) [Night Works (Jane Doe)] Glass Garden.zip",
			"Glass Garden",
			[]string{"Jane Doe"},
			[]string{"Night Works"},
			[]string{"Comic Fair 2023"},
		},
		{
			"artist only brackets",
			"[Jane Doe] Glass Garden.cbz",
			"Glass Garden",
			[]string{"Jane Doe"},
			nil,
			nil,
		},
		{
			"multiple artists",
			"[Night Works (Jane Doe, John Roe)] Glass Garden.zip",
			"Glass Garden",
			[]string{"Jane Doe", "John Roe"},
			[]string{"Night Works"},
			nil,
		},
		{
			"bare title",
			"Glass Garden.zip",
			"Glass Garden",
			nil,
			nil,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromFilename(tt.file)
			assert.Equal(t, tt.title, r.Title)
			assert.Equal(t, tt.artists, r.Artists)
			assert.Equal(t, tt.circles, r.Circles)
			assert.Equal(t, tt.events, r.Events)
		})
	}
}
