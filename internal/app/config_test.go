package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, 2, c.Window.Scale)
	assert.Equal(t, "ebitengine", c.Video.Backend)
	assert.Equal(t, "NTSC", c.Emulation.Region)
	assert.Equal(t, "J", c.Input.Player1Keys.A)
}

func TestLoadFromFile_MissingFile_ShouldWriteDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "famigo.json")
	c := NewConfig()

	require.NoError(t, c.LoadFromFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err, "defaults persisted for next launch")
}

func TestLoadFromFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "famigo.json")

	c := NewConfig()
	c.Window.Scale = 4
	c.Video.Backend = "terminal"
	require.NoError(t, c.SaveToFile(path))

	loaded := NewConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 4, loaded.Window.Scale)
	assert.Equal(t, "terminal", loaded.Video.Backend)
}

func TestLoadFromFile_BadJSON_ShouldError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "famigo.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	err := NewConfig().LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidate_ShouldRepairAndReject(t *testing.T) {
	c := NewConfig()
	c.Window.Scale = 0
	c.Emulation.FrameRate = -1
	require.NoError(t, c.validate())
	assert.Equal(t, 1, c.Window.Scale)
	assert.Equal(t, 60.0, c.Emulation.FrameRate)

	c.Video.Backend = "directx"
	assert.Error(t, c.validate())
}

func TestKeyMapping_ButtonOrder_MatchesMaskLayout(t *testing.T) {
	m := KeyMapping{
		A: "J", B: "K", Select: "Space", Start: "Return",
		Up: "W", Down: "S", Left: "A", Right: "D",
	}

	order := m.buttonOrder()
	assert.Equal(t, [8]string{"J", "K", "Space", "Return", "W", "S", "A", "D"}, order)
}
