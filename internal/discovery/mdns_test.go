package discovery

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLocalName(t *testing.T) {
	tests := map[string]string{
		"sempgateway":        "sempgateway.local",
		"sempgateway.local":  "sempgateway.local",
		"sempgateway.local.": "sempgateway.local",
		" garage ":           "garage.local",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, LocalName(in), in)
	}
}

func TestAnnounceRejectsEmptyName(t *testing.T) {
	_, err := Announce("  ", zerolog.Nop())
	assert.Error(t, err)
}
