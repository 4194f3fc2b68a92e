package metadata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// anchiraInfo is the YAML info.yaml dialect.
type anchiraInfo struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Artists     []string `yaml:"artists"`
	Circles     []string `yaml:"circles"`
	Magazines   []string `yaml:"magazines"`
	Events      []string `yaml:"events"`
	Publishers  []string `yaml:"publishers"`
	Parodies    []string `yaml:"parodies"`
	Tags        []string `yaml:"tags"`
	Released    int64    `yaml:"released"`
	Thumbnail   int      `yaml:"thumbnail"`
	URL         string   `yaml:"url"`
	Source      string   `yaml:"source"`
}

func parseAnchira(content []byte) (*Record, error) {
	var info anchiraInfo
	if err := yaml.Unmarshal(content, &info); err != nil {
		return nil, fmt.Errorf("parse anchira info: %w", err)
	}

	r := &Record{
		Title:       info.Title,
		Description: info.Description,
		ReleasedAt:  unixTime(info.Released),
		Thumbnail:   info.Thumbnail,
		Artists:     info.Artists,
		Circles:     info.Circles,
		Magazines:   info.Magazines,
		Events:      info.Events,
		Publishers:  info.Publishers,
		Parodies:    info.Parodies,
	}
	for _, t := range info.Tags {
		r.Tags = append(r.Tags, parseTag(t))
	}
	if info.URL != "" {
		r.Sources = append(r.Sources, SourceEntry{Name: "web", URL: info.URL})
	}
	if info.Source != "" {
		r.Sources = append(r.Sources, SourceEntry{Name: "source", URL: info.Source})
	}
	return r, nil
}
