package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom_defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	c, err := From(v)
	require.NoError(t, err)

	assert.Equal(t, "RNAfold", c.Fold.Binary)
	assert.Equal(t, []string{"-p", "--noPS"}, c.Fold.Args)
	assert.Equal(t, time.Second, c.Fold.PollInterval)
	assert.Equal(t, 2*time.Second, c.Fold.SweepInterval)
	assert.Equal(t, 2*time.Second, c.Fold.Grace)
	assert.Equal(t, []string{"*.ps"}, c.Fold.SweepPatterns)
	assert.True(t, c.Annotate.Strict)
	assert.GreaterOrEqual(t, c.Annotate.Workers, 1)
	assert.Equal(t, 200, c.Dataset.MaxLength)
}

func TestFrom_file(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "music.yaml")
	require.NoError(t, os.WriteFile(settings, []byte(`
fold:
  binary: /opt/vienna/bin/RNAfold
  poll-interval: 250ms
annotate:
  workers: 3
  strict: false
dataset:
  max-length: 101
`), 0644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(settings)
	require.NoError(t, v.ReadInConfig())

	c, err := From(v)
	require.NoError(t, err)
	assert.Equal(t, "/opt/vienna/bin/RNAfold", c.Fold.Binary)
	assert.Equal(t, 250*time.Millisecond, c.Fold.PollInterval)
	assert.Equal(t, 3, c.Annotate.Workers)
	assert.False(t, c.Annotate.Strict)
	assert.Equal(t, 101, c.Dataset.MaxLength)
}

func TestFrom_invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"no fold binary", "fold.binary", ""},
		{"zero poll interval", "fold.poll-interval", 0},
		{"no workers", "annotate.workers", 0},
		{"zero max length", "dataset.max-length", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := From(v)
			assert.Error(t, err)
		})
	}
}
