package converter

import (
	"strings"
	"testing"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	json "github.com/goccy/go-json"
)

const sampleInfo = `{
  "songName": "Beat It",
  "songSubName": "Michael Jackson",
  "authorName": "someone",
  "beatsPerMinute": 139,
  "difficultyLevels": [
    {"difficulty": "Expert", "difficultyRank": 4, "audioPath": "Beat it.ogg", "jsonPath": "Expert.json", "offset": -570, "oldOffset": -570}
  ]
}`

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo([]byte(sampleInfo))
	if err != nil {
		t.Fatalf("ParseInfo() error = %v", err)
	}
	if info.SongName != "Beat It" || info.BeatsPerMinute != 139 || info.OneSaber {
		t.Errorf("info = %+v", info)
	}
	if len(info.DifficultyLevels) != 1 {
		t.Fatalf("DifficultyLevels = %d, want 1", len(info.DifficultyLevels))
	}
	level := info.DifficultyLevels[0]
	if level.Offset != -570 || level.JSONPath != "Expert.json" {
		t.Errorf("level = %+v", level)
	}
	if d, err := level.Tier(); err != nil || d != beatmap.Expert {
		t.Errorf("Tier() = %v, %v", d, err)
	}
	if _, ok := info.Level(beatmap.Expert); !ok {
		t.Error("Level(Expert) not found")
	}
	if _, ok := info.Level(beatmap.Easy); ok {
		t.Error("Level(Easy) should not exist")
	}
}

func TestInfoRoundTripKeepsUnknownFields(t *testing.T) {
	info, err := ParseInfo([]byte(sampleInfo))
	if err != nil {
		t.Fatalf("ParseInfo() error = %v", err)
	}
	data, err := info.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if strings.Contains(string(data), "oneSaber") {
		t.Errorf("oneSaber written although never set: %s", data)
	}

	info.OneSaber = true
	info.SongName += " (Single Saber)"
	data, err = info.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if string(fields["authorName"]) != `"someone"` || string(fields["oneSaber"]) != "true" {
		t.Errorf("encoded info = %s", data)
	}
	if !strings.Contains(string(fields["difficultyLevels"]), `"oldOffset":-570`) {
		t.Errorf("level extras lost: %s", fields["difficultyLevels"])
	}

	again, err := ParseInfo(data)
	if err != nil {
		t.Fatalf("ParseInfo() error = %v", err)
	}
	if again.SongName != "Beat It (Single Saber)" || !again.OneSaber {
		t.Errorf("re-parsed info = %+v", again)
	}
}

func TestDerive(t *testing.T) {
	info, _ := ParseInfo([]byte(sampleInfo))
	src := info.DifficultyLevels[0]

	derived := src.Derive(beatmap.Normal, "Normal.json")
	if derived.Difficulty != "Normal" || derived.JSONPath != "Normal.json" || derived.DifficultyRank != 2 {
		t.Errorf("derived = %+v", derived)
	}
	if !derived.Synthesized() || derived.SourceDifficulty != "Expert" {
		t.Errorf("derived source = %q", derived.SourceDifficulty)
	}
	if derived.Offset != src.Offset || derived.AudioPath != src.AudioPath {
		t.Errorf("derived lost source fields: %+v", derived)
	}
	if src.Synthesized() {
		t.Error("Derive() modified the source entry")
	}

	data, err := json.Marshal(derived)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"sourceDifficultyLevel":"Expert"`) {
		t.Errorf("encoded derived = %s", data)
	}
}
