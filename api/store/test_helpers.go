/* test_helpers.go
 * Contains test helper functions for store package tests
 */

package store

import (
	"sync"
	"time"

	"github.com/vlakddp4/publicbot/api/shared"
)

// sampleParticipant creates a participant with a valid registration for testing.
func sampleParticipant(userID int64, username string, discordNickname string) shared.Participant {
	return shared.NewParticipant(
		shared.User{UserID: userID, Username: username},
		shared.Registration{
			DiscordNickname:     discordNickname,
			IngameNickname:      discordNickname + "#KR1",
			Tier:                "Gold",
			RankPoints:          1540,
			MostPlayedChampions: "Ahri, Lux",
			StatsLink:           "https://op.gg/summoners/kr/" + discordNickname,
		},
	)
}

// steppingClock returns a clock that advances by one second on every call, starting at start.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}
