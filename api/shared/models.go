/* models.go
 * This file contain the structs that are shared between the store, api and bot packages
 */

package shared

import "time"

// User identifies the Discord user behind an invocation
type User struct {
	UserID   int64
	Username string
}

// Registration holds the fields a user submits when signing up. A re-registration overwrites all of them.
type Registration struct {
	DiscordNickname     string
	IngameNickname      string
	Tier                string
	RankPoints          int
	MostPlayedChampions string
	StatsLink           string
}

// Profile holds the optional fields that are only written by a profile update. Empty means absent.
type Profile struct {
	ImageURL         string
	SelfIntroduction string
}

// Participant is one row of the participants table
type Participant struct {
	UserID   int64
	Username string // display name when the row was first created, never refreshed

	Registration
	Profile

	UpdatedAt time.Time
}

// Attachment is the subset of a Discord attachment the bot needs for profile images
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
	Size        int
}

// NewParticipant builds the row inserted for a user's registration
func NewParticipant(user User, reg Registration) Participant {
	return Participant{
		UserID:       user.UserID,
		Username:     user.Username,
		Registration: reg,
	}
}
