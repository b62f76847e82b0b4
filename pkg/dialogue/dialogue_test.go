package dialogue

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const introScript = `{
	"intro": [
		{"speaker": "Peter", "text": "Hi", "auto_time": null, "choices": [
			{"text": "Hello", "next_line": 1},
			{"text": "Bye", "next_scene": "end"}
		]},
		{"speaker": "Peter", "text": "Nice."}
	]
}`

func TestParse_JSON(t *testing.T) {
	script, err := Parse([]byte(introScript), FormatJSON)
	require.NoError(t, err)

	lines := script.Scene("intro")
	require.Len(t, lines, 2)
	assert.Equal(t, "Peter", lines[0].Speaker)
	assert.True(t, lines[0].HasChoices())
	require.Len(t, lines[0].Choices, 2)
	assert.Equal(t, 1, *lines[0].Choices[0].NextLine)
	assert.Equal(t, "end", *lines[0].Choices[1].NextScene)
	assert.False(t, lines[1].HasChoices())
}

func TestParse_WrappedDocument(t *testing.T) {
	data := `{"scenes": {"intro": [{"speaker": "Cleveland Brown", "text": "Oh, that's nasty."}]}}`
	script, err := Parse([]byte(data), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro"}, script.SceneIDs())
}

func TestParse_SceneNamedScenes(t *testing.T) {
	data := `{"scenes": [{"speaker": "Peter", "text": "Heh heh."}]}`
	script, err := Parse([]byte(data), FormatJSON)
	require.NoError(t, err)
	assert.Len(t, script.Scene("scenes"), 1)
}

func TestParse_YAML(t *testing.T) {
	data := `
intro:
  - speaker: Glenn Quagmire
    text: Giggity.
    auto_time: 1.5
    camera_target: Glenn Quagmire
    triggers:
      - type: move_to
        target: Joe Swanson
        params: {x: 1, y: 0, z: 2.5, speed: 3}
`
	script, err := Parse([]byte(data), FormatYAML)
	require.NoError(t, err)

	line, ok := script.LineAt("intro", 0)
	require.True(t, ok)
	d, ok := line.AutoDuration()
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	target, ok := line.CameraTargetName()
	require.True(t, ok)
	assert.Equal(t, "Glenn Quagmire", target)

	require.Len(t, line.Triggers, 1)
	x, ok := line.Triggers[0].Params.Number("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, x)
	z, _ := line.Triggers[0].Params.Number("z")
	assert.Equal(t, 2.5, z)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  Format
		wantErr string
	}{
		{
			name:    "invalid json",
			data:    `{"intro": [`,
			format:  FormatJSON,
			wantErr: "invalid JSON",
		},
		{
			name:    "top level array",
			data:    `[]`,
			format:  FormatJSON,
			wantErr: "top level must be an object",
		},
		{
			name:    "unknown field",
			data:    `{"intro": [{"speaker": "Peter", "text": "Hi", "mood": "happy"}]}`,
			format:  FormatJSON,
			wantErr: "unknown field",
		},
		{
			name:    "zero auto_time",
			data:    `{"intro": [{"speaker": "Peter", "text": "Hi", "auto_time": 0}]}`,
			format:  FormatJSON,
			wantErr: "auto_time must be > 0",
		},
		{
			name:    "auto_time beyond duration range",
			data:    `{"intro": [{"speaker": "Peter", "text": "Hi", "auto_time": 1e10}]}`,
			format:  FormatJSON,
			wantErr: "auto_time must be <=",
		},
		{
			name:    "player_text_auto_time beyond duration range",
			data:    `{"intro": [{"speaker": "Peter", "text": "Hi", "choices": [{"text": "a", "player_text_auto_time": 1e12}]}]}`,
			format:  FormatJSON,
			wantErr: "player_text_auto_time must be <=",
		},
		{
			name:    "empty choices",
			data:    `{"intro": [{"speaker": "Peter", "text": "Hi", "choices": []}]}`,
			format:  FormatJSON,
			wantErr: "choices is present but empty",
		},
		{
			name:    "negative next_line",
			data:    `{"intro": [{"speaker": "Peter", "text": "Hi", "choices": [{"text": "a", "next_line": -1}]}]}`,
			format:  FormatJSON,
			wantErr: "next_line must be >= 0",
		},
		{
			name:    "trigger without type",
			data:    `{"intro": [{"speaker": "Peter", "text": "Hi", "triggers": [{"target": "Joe"}]}]}`,
			format:  FormatJSON,
			wantErr: "type is required",
		},
		{
			name:    "yaml unknown field",
			data:    "intro:\n  - speaker: Peter\n    text: Hi\n    volume: 11\n",
			format:  FormatYAML,
			wantErr: "field volume not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedScript)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("data/dialogue.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("dialogue.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("dialogue.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("dialogue"))
}

func TestChoice_SpokenText(t *testing.T) {
	spoken := "Shut up, Meg."
	assert.Equal(t, "Hello", Choice{Text: "Hello"}.SpokenText())
	assert.Equal(t, spoken, Choice{Text: "Reply", PlayerText: &spoken}.SpokenText())
}

func TestLine_AutoDurationIgnoredWithChoices(t *testing.T) {
	secs := 2.0
	line := Line{AutoTime: &secs, Choices: []Choice{{Text: "ok"}}}
	_, ok := line.AutoDuration()
	assert.False(t, ok)

	line.Choices = nil
	d, ok := line.AutoDuration()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
}

func TestLine_AutoDurationClampsHugeValues(t *testing.T) {
	secs := 1e10
	d, ok := Line{AutoTime: &secs}.AutoDuration()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(math.MaxInt64), d)
	assert.Positive(t, d)
}

func TestScript_LineAt(t *testing.T) {
	script := Script{"intro": {{Speaker: "Peter", Text: "Hi"}}}

	_, ok := script.LineAt("intro", 0)
	assert.True(t, ok)
	_, ok = script.LineAt("intro", 1)
	assert.False(t, ok)
	_, ok = script.LineAt("intro", -1)
	assert.False(t, ok)
	_, ok = script.LineAt("missing", 0)
	assert.False(t, ok)
}

func TestParams_Number(t *testing.T) {
	p := Params{
		"f":    1.5,
		"i":    2,
		"i64":  int64(3),
		"num":  json.Number("4.25"),
		"bad":  json.Number("x"),
		"str":  "5",
		"flag": true,
	}

	tests := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"f", 1.5, true},
		{"i", 2, true},
		{"i64", 3, true},
		{"num", 4.25, true},
		{"bad", 0, false},
		{"str", 0, false},
		{"flag", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		got, ok := p.Number(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestScript_Speakers(t *testing.T) {
	script := Script{
		"a": {{Speaker: "Peter"}, {Speaker: "Cleveland Brown"}},
		"b": {{Speaker: "Peter"}, {Speaker: ""}},
	}
	assert.Equal(t, []string{"Cleveland Brown", "Peter"}, script.Speakers())
}

func TestScript_Lint(t *testing.T) {
	data := `{
		"intro": [
			{"speaker": "Peter Griffin", "text": "Hey Lois", "camera_target": "peter griffin", "auto_time": 1,
			 "choices": [
				{"text": "Go", "next_scene": "nowhere"},
				{"text": "Stay", "next_line": 9},
				{"text": "Both", "next_scene": "intro", "next_line": 0,
				 "triggers": [{"type": "dance", "target": "Stewie"}]}
			]}
		]
	}`
	script, err := Parse([]byte(data), FormatJSON)
	require.NoError(t, err)

	warnings := script.Lint([]string{"Peter Griffin", "Joe Swanson"})
	joined := strings.Join(warnings, "\n")

	assert.Contains(t, joined, `camera_target "peter griffin" differs only in case from "Peter Griffin"`)
	assert.Contains(t, joined, "auto_time is ignored on a line with choices")
	assert.Contains(t, joined, `next_scene "nowhere" does not exist`)
	assert.Contains(t, joined, "next_line 9 is past the end")
	assert.Contains(t, joined, "next_line is ignored because next_scene is set")
	assert.Contains(t, joined, `unknown trigger type "dance"`)
	assert.Contains(t, joined, `target "Stewie" is not a known name`)
}

func TestScript_LintWithoutKnownNames(t *testing.T) {
	script := Script{"intro": {{Speaker: "Peter", Text: "Hi", Triggers: []Trigger{{Kind: "move_to", Target: "anyone"}}}}}
	assert.Empty(t, script.Lint(nil))
}
