package converter

import (
	"fmt"
	"os"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	json "github.com/goccy/go-json"
)

// InfoFileName is the song metadata file looked for in every song folder
const InfoFileName = "info.json"

// DifficultyLevel is one entry of Info.DifficultyLevels
type DifficultyLevel struct {
	Difficulty     string  `json:"difficulty"`
	DifficultyRank int     `json:"difficultyRank"`
	AudioPath      string  `json:"audioPath"`
	JSONPath       string  `json:"jsonPath"`
	Offset         float64 `json:"offset"` // Playback offset in milliseconds

	// SourceDifficulty names the tier a synthesized entry was derived from
	SourceDifficulty string `json:"sourceDifficultyLevel,omitempty"`

	raw map[string]json.RawMessage
}

// Info is the song metadata record
type Info struct {
	SongName         string            `json:"songName"`
	BeatsPerMinute   float64           `json:"beatsPerMinute"`
	OneSaber         bool              `json:"oneSaber"`
	DifficultyLevels []DifficultyLevel `json:"difficultyLevels"`

	raw map[string]json.RawMessage
}

// decodeKnown fills the named fields of dst from raw and keeps raw for re-encoding
func decodeKnown(data []byte, fields map[string]any) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return nil, fmt.Errorf("bad field %q: %w", key, err)
		}
	}
	return raw, nil
}

// encodeKnown overlays fields on a copy of raw
func encodeKnown(raw map[string]json.RawMessage, fields map[string]any) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(raw)+len(fields))
	for k, v := range raw {
		out[k] = v
	}
	for k, v := range fields {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", k, err)
		}
		out[k] = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *DifficultyLevel) UnmarshalJSON(data []byte) error {
	raw, err := decodeKnown(data, map[string]any{
		"difficulty":            &l.Difficulty,
		"difficultyRank":        &l.DifficultyRank,
		"audioPath":             &l.AudioPath,
		"jsonPath":              &l.JSONPath,
		"offset":                &l.Offset,
		"sourceDifficultyLevel": &l.SourceDifficulty,
	})
	if err != nil {
		return err
	}
	l.raw = raw
	return nil
}

// MarshalJSON implements json.Marshaler
func (l DifficultyLevel) MarshalJSON() ([]byte, error) {
	fields := map[string]any{
		"difficulty":     l.Difficulty,
		"difficultyRank": l.DifficultyRank,
		"audioPath":      l.AudioPath,
		"jsonPath":       l.JSONPath,
		"offset":         l.Offset,
	}
	if l.SourceDifficulty != "" {
		fields["sourceDifficultyLevel"] = l.SourceDifficulty
	}
	return encodeKnown(l.raw, fields)
}

// Tier resolves the entry's difficulty name
func (l DifficultyLevel) Tier() (beatmap.Difficulty, error) {
	return beatmap.ParseDifficulty(l.Difficulty)
}

// Synthesized reports whether the entry was derived from another tier
func (l DifficultyLevel) Synthesized() bool {
	return l.SourceDifficulty != ""
}

// Derive copies the entry for another tier whose file lives at jsonPath
func (l DifficultyLevel) Derive(target beatmap.Difficulty, jsonPath string) DifficultyLevel {
	out := l
	out.raw = make(map[string]json.RawMessage, len(l.raw))
	for k, v := range l.raw {
		out.raw[k] = v
	}
	out.SourceDifficulty = l.Difficulty
	out.Difficulty = target.String()
	out.DifficultyRank = int(target) + 1
	out.JSONPath = jsonPath
	return out
}

// UnmarshalJSON implements json.Unmarshaler
func (i *Info) UnmarshalJSON(data []byte) error {
	raw, err := decodeKnown(data, map[string]any{
		"songName":         &i.SongName,
		"beatsPerMinute":   &i.BeatsPerMinute,
		"oneSaber":         &i.OneSaber,
		"difficultyLevels": &i.DifficultyLevels,
	})
	if err != nil {
		return err
	}
	i.raw = raw
	return nil
}

// MarshalJSON implements json.Marshaler
func (i Info) MarshalJSON() ([]byte, error) {
	fields := map[string]any{
		"songName":         i.SongName,
		"beatsPerMinute":   i.BeatsPerMinute,
		"difficultyLevels": i.DifficultyLevels,
	}
	if _, had := i.raw["oneSaber"]; had || i.OneSaber {
		fields["oneSaber"] = i.OneSaber
	}
	return encodeKnown(i.raw, fields)
}

// Level returns the entry for a tier
func (i *Info) Level(d beatmap.Difficulty) (DifficultyLevel, bool) {
	for _, l := range i.DifficultyLevels {
		if t, err := l.Tier(); err == nil && t == d {
			return l, true
		}
	}
	return DifficultyLevel{}, false
}

// ParseInfo parses info file data
func ParseInfo(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse info: %w", err)
	}
	return &info, nil
}

// ReadInfo reads and parses an info file
func ReadInfo(filename string) (*Info, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read info file: %w", err)
	}
	return ParseInfo(data)
}

// Bytes encodes the info record
func (i *Info) Bytes() ([]byte, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("failed to encode info: %w", err)
	}
	return data, nil
}
