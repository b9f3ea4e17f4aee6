package registry

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageNames(t *testing.T) {
	names := ParseImageNames(" frontend , tools/cli ,backend")

	require.Len(t, names, 3)
	assert.Equal(t, "frontend", names[0].Value)
	assert.Equal(t, "tools/cli", names[1].Value)
	assert.Equal(t, "backend", names[2].Value)
}

func TestParseImageNames_SingleName(t *testing.T) {
	names := ParseImageNames("myimage")

	require.Len(t, names, 1)
	assert.Equal(t, "myimage", names[0].Value)
	assert.Equal(t, "myimage", names[0].Encoded)
}

func TestImageName_EncodedRoundTrip(t *testing.T) {
	inputs := []string{
		"myimage",
		"tools/cli",
		"my image",
		"a+b",
		"image:tag@sha",
		"tête",
	}
	for _, input := range inputs {
		img := NewImageName(input)

		decoded, err := url.PathUnescape(img.Encoded)
		require.NoError(t, err, input)
		assert.Equal(t, input, decoded)
	}
}

func TestImageName_EncodedIsSinglePathSegment(t *testing.T) {
	img := NewImageName("tools/cli")

	assert.Equal(t, "tools%2Fcli", img.Encoded)
	assert.NotContains(t, img.Encoded, "/")
}
