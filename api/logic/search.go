/* search.go
 * Contains the fuzzy nickname search used by the admin participant search
 */

package logic

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/vlakddp4/publicbot/api/shared"
)

// RankByNickname returns the participants whose Discord or in-game nickname fuzzily matches query, best match first.
// Preconditions: Receives a search query and the participants to search
// Postconditions: Returns each matching participant once, ranked by its closest nickname. Ties keep the input order
func RankByNickname(query string, participants []shared.Participant) []shared.Participant {
	query = strings.TrimSpace(query)
	if query == "" || len(participants) == 0 {
		return nil
	}

	// two targets per participant: 2i is the Discord nickname, 2i+1 the in-game nickname
	targets := make([]string, 0, len(participants)*2)
	for _, p := range participants {
		targets = append(targets, p.DiscordNickname, p.IngameNickname)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	seen := make(map[int]bool, len(ranks))
	var matches []shared.Participant
	for _, rank := range ranks {
		idx := rank.OriginalIndex / 2
		if seen[idx] {
			continue
		}
		seen[idx] = true
		matches = append(matches, participants[idx])
	}
	return matches
}
