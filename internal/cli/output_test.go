package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("run: %w", WrapExitError(ExitCommandError, "bad", errors.New("x"))), ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("no such table")
	err := WrapExitError(ExitFailure, "cannot fetch page", inner)

	assert.Equal(t, "cannot fetch page: no such table", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
}

func TestOutputFormatter_PageJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Page(&PageView{
		Columns: []string{"id"},
		Rows:    []map[string]any{{"id": 1}},
		Next:    "abc",
	})
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   PageView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "abc", resp.Data.Next)
	assert.Empty(t, resp.Data.Previous)
}

func TestOutputFormatter_PageText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Page(&PageView{
		Columns:  []string{"id", "note"},
		Rows:     []map[string]any{{"id": 10, "note": nil}, {"id": 2, "note": []byte("hi")}},
		Previous: "xyz",
	})
	require.NoError(t, err)

	assert.Equal(t, "ID  NOTE\n10  NULL\n2   hi\nprevious: xyz\n", buf.String())
}

func TestResolveFormat(t *testing.T) {
	buf := &bytes.Buffer{}

	assert.Equal(t, "json", resolveFormat("auto", buf))
	assert.Equal(t, "text", resolveFormat("text", buf))
	assert.Equal(t, "json", resolveFormat("json", buf))
}
