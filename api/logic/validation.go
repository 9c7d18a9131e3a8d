/* validation.go
 * Contains the validation rules a registration must pass before it reaches the store
 */

package logic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNicknameLength is the longest Discord or in-game nickname accepted, in characters
const MaxNicknameLength = 32

var statsLinkPattern = regexp.MustCompile(`^https?://`)

// Rejection reasons shown to the user as-is
const (
	ReasonNegativeRankPoints = "랭크 점수는 음수가 될 수 없습니다."
	ReasonInvalidStatsLink   = "올바른 dak.gg 링크를 입력해주세요."
	ReasonNicknameTooLong    = "닉네임은 32자를 넘을 수 없습니다."
	ReasonInvalidImage       = "올바른 이미지 파일을 첨부해 주세요."
)

// ValidationError is returned when user input breaks a registration rule
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateParticipation checks a registration and returns the first rule it breaks.
// Preconditions: Receives both nicknames, the rank points and the stats link submitted by the user
// Postconditions: Returns nil if the registration is valid, otherwise a *ValidationError for the first failed rule,
// checked in the order rank points, stats link, nicknames
func ValidateParticipation(discordNickname string, ingameNickname string, rankPoints int, statsLink string) error {
	if rankPoints < 0 {
		return &ValidationError{Reason: ReasonNegativeRankPoints}
	}
	if !statsLinkPattern.MatchString(statsLink) {
		return &ValidationError{Reason: ReasonInvalidStatsLink}
	}
	if nicknameLength(discordNickname) > MaxNicknameLength || nicknameLength(ingameNickname) > MaxNicknameLength {
		return &ValidationError{Reason: ReasonNicknameTooLong}
	}
	return nil
}

// ValidateProfileImage rejects attachments that are not images
func ValidateProfileImage(contentType string) error {
	if !strings.HasPrefix(contentType, "image") {
		return &ValidationError{Reason: ReasonInvalidImage}
	}
	return nil
}

// nicknameLength counts characters after NFC normalization, so a composed and a decomposed hangul syllable
// have the same length
func nicknameLength(nickname string) int {
	return utf8.RuneCountInString(norm.NFC.String(nickname))
}
