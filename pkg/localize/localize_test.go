package localize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, EN, Detect("en-US,en;q=0.9"))
	assert.Equal(t, EN, Detect("EN"))
	assert.Equal(t, VI, Detect("vi-VN"))
	assert.Equal(t, VI, Detect(""))
}

func TestFromRequest(t *testing.T) {
	assert.Equal(t, VI, FromRequest("vi", "en-US"), "explicit query wins")
	assert.Equal(t, EN, FromRequest("EN", ""))
	assert.Equal(t, EN, FromRequest("fr", "en-GB"), "unsupported query falls back to header")
	assert.Equal(t, VI, FromRequest("", ""))
}

func TestRaw(t *testing.T) {
	assert.True(t, Raw("1"))
	assert.True(t, Raw("true"))
	assert.True(t, Raw("TRUE"))
	assert.False(t, Raw(""))
	assert.False(t, Raw("0"))
}

func TestPick(t *testing.T) {
	tests := []struct {
		name   string
		text   Text
		locale Locale
		legacy string
		want   string
	}{
		{"requested locale", Text{"vi": "Ghế", "en": "Chair"}, EN, "x", "Chair"},
		{"english falls back to vietnamese", Text{"vi": "Ghế"}, EN, "legacy", "Ghế"},
		{"empty entries are skipped", Text{"vi": "", "en": ""}, EN, "legacy", "legacy"},
		{"nil map uses legacy", nil, VI, "legacy", "legacy"},
		{"nothing at all", nil, EN, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Pick(tc.text, tc.locale, tc.legacy))
		})
	}
}

func TestLift(t *testing.T) {
	assert.Equal(t, Text{"vi": "Tin"}, Lift(nil, "Tin"))
	assert.Equal(t, Text{"en": "News"}, Lift(Text{"en": "News"}, "Tin"))
	assert.Nil(t, Lift(nil, ""))
}
