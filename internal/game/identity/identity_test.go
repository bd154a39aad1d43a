package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

func TestEncodeDecode(t *testing.T) {
	cases := map[string]string{
		"zezima":       "zezima",
		"Zezima":       "zezima",
		"mod ash":      "mod_ash",
		"mod_ash":      "mod_ash",
		"a1b2c3":       "a1b2c3",
		"abcdefghijkl": "abcdefghijkl",
	}
	for in, want := range cases {
		assert.Equal(t, want, Decode(Encode(in)), in)
	}

	assert.Equal(t, Encode("Mod Ash"), Encode("mod_ash"))
	assert.Equal(t, Encode("abcdefghijkl"), Encode("abcdefghijklmnop"))
	assert.Equal(t, uint64(0), Encode(""))
	assert.Equal(t, "", Decode(0))

	// 尾部空格不影响身份键。
	assert.Equal(t, Encode("bob"), Encode("bob  "))
}

func TestEncodeKnownValues(t *testing.T) {
	assert.Equal(t, uint64(1), Encode("a"))
	assert.Equal(t, uint64(27), Encode("0"))
	assert.Equal(t, uint64(1*37+2), Encode("ab"))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "Mod Ash", Display(Encode("mod_ash")))
	assert.Equal(t, "Zezima", Display(Encode("ZEZIMA")))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "mod ash", Normalize(" Mod_Ash "))
}

func TestValidateUsername(t *testing.T) {
	for _, ok := range []string{"a", "Zezima", "mod ash", "mod_ash", "abcdefghijkl", "n00b"} {
		assert.NoError(t, ValidateUsername(ok), ok)
	}
	for _, bad := range []string{"", "abcdefghijklm", "bad!", "   ", "__", "tab\tname"} {
		err := ValidateUsername(bad)
		assert.ErrorIs(t, err, merr.ErrPlayerInvalidName, bad)
	}
}

func TestValidatePassword(t *testing.T) {
	for _, ok := range []string{"hunter2", "12345", "p@ss w0rd!", "abcdefghijklmnopqrst"} {
		assert.NoError(t, ValidatePassword(ok), ok)
	}
	for _, bad := range []string{"", "1234", "abcdefghijklmnopqrstu", "pass\x01word"} {
		err := ValidatePassword(bad)
		assert.ErrorIs(t, err, merr.ErrPlayerInvalidPassword, bad)
	}
}
