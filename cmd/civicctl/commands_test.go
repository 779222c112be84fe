package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (map[string]interface{}, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got), out.String())
	return got, nil
}

func TestClassify(t *testing.T) {
	got, err := run(t, "classify", "Is", "this", "claim", "fake?")
	require.NoError(t, err)
	assert.Equal(t, "fact-check", got["intent"])
	assert.Equal(t, "Is this claim fake?", got["text"])
}

func TestDetect(t *testing.T) {
	got, err := run(t, "detect", "मेरे सांसद कौन हैं?")
	require.NoError(t, err)
	assert.Equal(t, "hindi", got["detected"])
	assert.Equal(t, "hindi", got["resolved"])

	got, err = run(t, "detect", "--language", "malayalam", "Who is my MP?")
	require.NoError(t, err)
	assert.Equal(t, "english", got["detected"])
	assert.Equal(t, "malayalam", got["resolved"])
}

func TestEvidence(t *testing.T) {
	got, err := run(t, "evidence", "What is the Right to Information Act?", "--context")
	require.NoError(t, err)

	assert.Equal(t, "law", got["intent"])
	assert.Equal(t, []interface{}{"India Code", "PRS Legislative Research"}, got["providers"])
	bundle := got["bundle"].(map[string]interface{})
	assert.Equal(t, "India Code, PRS Legislative Research", bundle["source"])
	assert.Contains(t, got["context"], "INTENT: law\nSOURCE: India Code, PRS Legislative Research\nDATA: ")
}

func TestEvidenceDisabledProvider(t *testing.T) {
	got, err := run(t, "evidence", "Who is my MLA?", "--disable", "eci")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"MyNeta (ADR)"}, got["providers"])
}

func TestEvidenceErrors(t *testing.T) {
	_, err := run(t, "evidence", "q", "--intent", "scheme")
	assert.ErrorContains(t, err, "unknown intent")

	_, err = run(t, "evidence", "q", "--disable", "twitter")
	assert.ErrorContains(t, err, "unknown evidence provider")

	_, err = run(t, "classify")
	assert.Error(t, err)
}
