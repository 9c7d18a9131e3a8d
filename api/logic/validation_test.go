/* validation_test.go
 * Contains unit tests for validation.go
 */

package logic

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// region ValidateParticipation tests

func TestValidateParticipation_Valid(t *testing.T) {
	err := ValidateParticipation("Ally", "Ally#KR1", 0, "https://dak.gg/er/players/Ally")
	assert.NoError(t, err)

	err = ValidateParticipation(strings.Repeat("a", 32), strings.Repeat("b", 32), 9999, "http://x")
	assert.NoError(t, err)
}

func TestValidateParticipation_NegativeRankPoints(t *testing.T) {
	err := ValidateParticipation("Ally", "Ally", -1, "https://dak.gg")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ReasonNegativeRankPoints, verr.Reason)
}

func TestValidateParticipation_InvalidStatsLink(t *testing.T) {
	for _, link := range []string{"", "dak.gg/er", "ftp://dak.gg", " https://dak.gg", "HTTPS://dak.gg"} {
		err := ValidateParticipation("Ally", "Ally", 10, link)
		assert.EqualError(t, err, ReasonInvalidStatsLink, "link %q", link)
	}
}

func TestValidateParticipation_NicknameTooLong(t *testing.T) {
	long := strings.Repeat("a", 33)

	assert.EqualError(t, ValidateParticipation(long, "Ally", 10, "https://dak.gg"), ReasonNicknameTooLong)
	assert.EqualError(t, ValidateParticipation("Ally", long, 10, "https://dak.gg"), ReasonNicknameTooLong)
}

func TestValidateParticipation_CountsCharactersNotBytes(t *testing.T) {
	// 32 hangul syllables are 96 bytes
	assert.NoError(t, ValidateParticipation(strings.Repeat("가", 32), "Ally", 10, "https://dak.gg"))

	// the same syllables decomposed into jamo are normalized back before counting
	decomposed := strings.Repeat("\u1100\u1161", 32)
	require.Equal(t, 64, len([]rune(decomposed)))
	assert.NoError(t, ValidateParticipation(decomposed, "Ally", 10, "https://dak.gg"))
}

func TestValidateParticipation_FirstRuleWins(t *testing.T) {
	long := strings.Repeat("a", 40)

	assert.EqualError(t, ValidateParticipation(long, long, -5, "nope"), ReasonNegativeRankPoints)
	assert.EqualError(t, ValidateParticipation(long, long, 5, "nope"), ReasonInvalidStatsLink)
}

func TestValidateParticipation_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		discord := rapid.StringN(0, 40, -1).Draw(r, "discord")
		ingame := rapid.StringN(0, 40, -1).Draw(r, "ingame")
		points := rapid.IntRange(-100, 100).Draw(r, "points")
		link := rapid.SampledFrom([]string{"https://dak.gg/a", "http://x", "dak.gg", "", "mailto:a"}).Draw(r, "link")

		valid := points >= 0 &&
			(strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")) &&
			nicknameLength(discord) <= MaxNicknameLength &&
			nicknameLength(ingame) <= MaxNicknameLength

		err := ValidateParticipation(discord, ingame, points, link)
		if valid && err != nil {
			r.Fatalf("expected valid, got %v", err)
		}
		if !valid && err == nil {
			r.Fatalf("expected a validation error")
		}
		// deterministic
		if again := ValidateParticipation(discord, ingame, points, link); (again == nil) != (err == nil) {
			r.Fatalf("verdict changed between calls")
		}
	})
}

// endregion

// region ValidateProfileImage tests

func TestValidateProfileImage(t *testing.T) {
	assert.NoError(t, ValidateProfileImage("image/png"))
	assert.NoError(t, ValidateProfileImage("image/jpeg"))

	assert.EqualError(t, ValidateProfileImage("application/pdf"), ReasonInvalidImage)
	assert.EqualError(t, ValidateProfileImage(""), ReasonInvalidImage)
}

// endregion
