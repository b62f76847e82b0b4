package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stage = `camera:
  position: {x: 0, y: 2, z: 8}
entities:
  - speaker: Peter Griffin
    target: true
    position: {x: -3, y: 0, z: 0}
  - speaker: Joe Swanson
    actor: Joe Swanson
    target: true
    position: {x: 3, y: 0, z: 0}
`

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	stagePath := write(t, dir, "stage.yaml", stage)

	tests := []struct {
		name       string
		file       string
		body       string
		withStage  bool
		wantCode   int
		wantOut    []string
		wantErrOut []string
	}{
		{
			name:     "valid",
			file:     "intro.json",
			body:     `{"intro": [{"speaker": "Peter Griffin", "text": "Hey.", "camera_target": "Peter Griffin"}]}`,
			wantCode: 0,
			wantOut:  []string{"Script file is valid!"},
		},
		{
			name:      "lint warnings do not fail",
			file:      "warn.json",
			body:      `{"Intro": [{"speaker": "Peter Griffin", "text": "Hey.", "camera_target": "peter griffin", "triggers": [{"type": "dance", "target": "Joe Swanson"}]}]}`,
			withStage: true,
			wantCode:  0,
			wantOut: []string{
				"scene ID 'Intro' should be lowercase snake_case",
				`differs only in case from "Peter Griffin"`,
				`unknown trigger type "dance"`,
				"Script file is valid!",
			},
		},
		{
			name:       "malformed",
			file:       "bad.json",
			body:       `{"intro": [{"speaker": "Peter Griffin", "text": "Hey.", "auto_time": -1}]}`,
			wantCode:   1,
			wantErrOut: []string{"auto_time must be > 0"},
		},
		{
			name:       "empty script",
			file:       "empty.yaml",
			body:       "{}\n",
			wantCode:   1,
			wantErrOut: []string{"script has no scenes"},
		},
		{
			name:       "wrong extension",
			file:       "intro.txt",
			body:       `{}`,
			wantCode:   1,
			wantErrOut: []string{"extension"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{write(t, dir, tt.file, tt.body)}
			if tt.withStage {
				args = append(args, stagePath)
			}
			var stdout, stderr bytes.Buffer

			code := run(args, &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code, stderr.String())
			for _, s := range tt.wantOut {
				assert.Contains(t, stdout.String(), s)
			}
			for _, s := range tt.wantErrOut {
				assert.Contains(t, stderr.String(), s)
			}
		})
	}
}

func TestRun_DataDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "stage.yaml", stage)
	write(t, dir, "dialogue.json", `{"intro": [{"speaker": "Joe Swanson", "text": "Bring it on!"}]}`)
	t.Chdir(dir)
	t.Setenv("DATA_DIR", dir)

	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "1 script file(s) valid!")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"a", "b", "c"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage")
}

func TestRun_ShippedData(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"../../data/dialogue.json", "../../data/stage.yaml"}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Script file is valid!")
}
