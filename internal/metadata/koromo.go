package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errUnknownFormat = errors.New("unknown metadata format")

// koromoInfo is the JSON info.json dialect. String-or-array fields are
// tolerated for the taxonomy lists.
type koromoInfo struct {
	Title       string     `json:"Title"`
	Description string     `json:"Description"`
	Artist      stringList `json:"Artist"`
	Circle      stringList `json:"Circle"`
	Magazine    stringList `json:"Magazine"`
	Event       stringList `json:"Event"`
	Publisher   stringList `json:"Publisher"`
	Parody      stringList `json:"Parody"`
	Tags        stringList `json:"Tags"`
	Released    int64      `json:"Released"`
	Thumb       int        `json:"Thumb"`
	URL         string     `json:"URL"`
}

// stringList accepts both "value" and ["value", ...].
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*l = []string{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func parseKoromo(content []byte) (*Record, error) {
	var info koromoInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, fmt.Errorf("parse koromo info: %w", err)
	}

	r := &Record{
		Title:       info.Title,
		Description: info.Description,
		ReleasedAt:  unixTime(info.Released),
		Thumbnail:   info.Thumb,
		Artists:     info.Artist,
		Circles:     info.Circle,
		Magazines:   info.Magazine,
		Events:      info.Event,
		Publishers:  info.Publisher,
		Parodies:    info.Parody,
	}
	for _, t := range info.Tags {
		r.Tags = append(r.Tags, parseTag(t))
	}
	if info.URL != "" {
		r.Sources = append(r.Sources, SourceEntry{Name: "web", URL: info.URL})
	}
	return r, nil
}
