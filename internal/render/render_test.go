package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercury-protocol/ceres/internal/pipeline"
	"github.com/mercury-protocol/ceres/internal/store"
)

func TestWritePRMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePRMarkdown(&buf, store.PRInfo{
		Name:            "Weather Feed",
		Description:     "Hourly observations.",
		DataDescription: "JSON",
		DataSource:      "api.weather.example",
		DataUsefulness:  "Forecasting",
		CodeExplanation: "Polls and verifies.",
		ImageID:         "[1, 2]",
		Email:           "dev@example.com",
	}))

	want := `# Weather Feed

Image ID: [1, 2]

Contact email: dev@example.com

## Collector-verifier description:
Hourly observations.

## Data to be collected: type, structure, file format, size, etc.:
JSON

## Data will be collected from:
api.weather.example

## This data is worth collecting because:
Forecasting

## Explanation of code:
Polls and verifies.
`
	assert.Equal(t, want, buf.String())
}

func TestWritePRMarkdown_SourceCode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePRMarkdown(&buf, store.PRInfo{Name: "x", SourceCode: "https://github.com/a/b"}))
	assert.Contains(t, buf.String(), "Source code: https://github.com/a/b\n")
}

func TestCollectorEntry(t *testing.T) {
	got := CollectorEntry(store.PRInfo{
		Name:        "Weather Feed",
		Description: "Hourly observations.",
		ImageID:     "[1, 2]",
		SourceCode:  "https://github.com/a/b",
	}, "weather-feed")

	assert.Equal(t, "---\n\n# Weather Feed\n**ID**: weather-feed\n**Image ID**: [1, 2]\n"+
		"**Source code**: https://github.com/a/b\n**Full PR text**: \n**Description**: Hourly observations.\n", got)
}

func TestWriteNextSteps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNextSteps(&buf, "/work/weather"))
	assert.Contains(t, buf.String(), "git clone "+CollectorsRepoURL)
	assert.Contains(t, buf.String(), "ceres add-pr /work/weather\n")

	buf.Reset()
	require.NoError(t, WriteNextSteps(&buf, "/work/my weather"))
	assert.Contains(t, buf.String(), "ceres add-pr '/work/my weather'\n")
}

func TestWriteKV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKV(&buf, []KV{{"project", "widget"}, {"image_id", "[1]"}}))
	assert.Equal(t, "project: widget\nimage_id: [1]\n", buf.String())
}

func TestGenReportKV(t *testing.T) {
	rep := &pipeline.Report{
		Project:   "widget",
		GenDir:    "/w/verifier/out/widget",
		Reached:   pipeline.ToolchainChecked,
		Failed:    true,
		CleanedUp: true,
		Stages:    []pipeline.StageResult{{Stage: pipeline.ToolchainChecked, Duration: 1500 * time.Microsecond}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteKV(&buf, GenReportKV(rep)))
	assert.Equal(t, strings.Join([]string{
		"project: widget",
		"gen_dir: /w/verifier/out/widget",
		"reached: ToolchainChecked",
		"stage.ToolchainChecked: 2ms",
		"failed: true",
		"cleaned_up: true",
	}, "\n")+"\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []KV{{"cargo", "ok"}}))

	var env struct {
		SchemaVersion string `json:"schema_version"`
		Data          []KV   `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, "1.0", env.SchemaVersion)
	assert.Equal(t, []KV{{"cargo", "ok"}}, env.Data)
}
