package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderUsesSemicolonAndBOM(t *testing.T) {
	e := NewCSVExporter()
	out, err := e.Render(Dataset{
		Headers: []string{"Mechanik", "Godziny"},
		Rows:    []map[string]string{{"Mechanik": "Michał Gołąb", "Godziny": "1,50"}},
	})
	require.NoError(t, err)

	body := string(out)
	assert.True(t, strings.HasPrefix(body, "\ufeff"))
	assert.Contains(t, body, "Mechanik;Godziny")
	assert.Contains(t, body, "Michał Gołąb;1,50")
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	e := NewCSVExporter()
	_, err := e.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRenderHandlesDiacritics(t *testing.T) {
	e := NewPDFExporter()
	out, err := e.Render(Dataset{
		Headers: []string{"Mechanik", "Godziny"},
		Rows:    []map[string]string{{"Mechanik": "Michał Gołąb", "Godziny": "1,50"}},
	}, "Raport czasu pracy")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
