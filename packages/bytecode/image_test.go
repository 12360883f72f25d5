package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRoundTrip(t *testing.T) {
	src := "((fun (x y) (if (lt x y) x y)) 3 4)"
	code := compileSource(t, src)

	data, err := MarshalImage(code, src)
	require.NoError(t, err)
	assert.Contains(t, string(data), "op: MKFUNC")

	img, err := UnmarshalImage(data)
	require.NoError(t, err)
	assert.Equal(t, src, img.Source)
	assert.Equal(t, code, img.Code)
}

func TestImageRejectsOtherMajorVersion(t *testing.T) {
	data := []byte("format: 2.0.0\ncode:\n- op: APPLY\n")
	_, err := UnmarshalImage(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible")

	data = []byte("format: 1.4.2\ncode:\n- op: LOAD\n  const: 7\n- op: MKBASIC\n")
	img, err := UnmarshalImage(data)
	require.NoError(t, err)
	assert.Equal(t, []Instruction{Load(7), MkBasic()}, img.Code)
}

func TestImageRejectsBadContent(t *testing.T) {
	for _, data := range []string{
		"code: []\n",
		"format: one\ncode: []\n",
		"format: 1.0.0\ncode:\n- op: TELEPORT\n",
		"format: 1.0.0\ncode:\n- op: JUMP\n  label: nowhere\n",
	} {
		_, err := UnmarshalImage([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestListing(t *testing.T) {
	listing := Listing(compileSource(t, "(fun (x) x)"))
	lines := strings.Split(strings.TrimRight(listing, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "   0 label0:", lines[0])
	assert.Equal(t, "   1     MKFUNC label1 1", lines[1])
	assert.Equal(t, "   5 label1:", lines[5])
}
