package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBundled(t *testing.T) {
	data := []byte("name: notekeeper\n" +
		"description: writes notes to the workspace\n" +
		"actions: ws_write, send_speech\n" +
		"\n" +
		"When the user asks you to remember something, write it to\n" +
		"notes/<topic>.md and confirm once saved.\n")

	s, err := ParseBundled(data)
	require.NoError(t, err)

	assert.Equal(t, "notekeeper", s.Name)
	assert.Equal(t, "writes notes to the workspace", s.Description)
	assert.Equal(t, []string{"ws_write", "send_speech"}, s.Actions)
	assert.Equal(t, SourceBundled, s.Source)
	assert.True(t, s.Active)
	assert.Contains(t, s.Guidance, "When the user asks you to remember something")
}

func TestParseBundledRequiresName(t *testing.T) {
	_, err := ParseBundled([]byte("description: no name here\n\nbody\n"))
	assert.Error(t, err)
}

func TestActionNamesDedupesAndSorts(t *testing.T) {
	names := ActionNames([]Skill{
		{Actions: []string{"send_speech", "ws_write"}},
		{Actions: []string{"ws_write", "ws_read"}},
	})
	assert.Equal(t, []string{"send_speech", "ws_read", "ws_write"}, names)
}
