/* merge_policy.go
 * Contains the per column merge policy for the participants table. Every engine derives its insert, conflict
 * and profile update statements from this table instead of hand writing them
 */

package store

import (
	"fmt"
	"time"

	"github.com/vlakddp4/publicbot/api/shared"
)

// Rule describes how a column behaves across the writes a participant row goes through
type Rule int

const (
	// RuleKey is the primary key. Written on insert, never rewritten
	RuleKey Rule = iota
	// RuleInsertOnly is written on insert and kept on every later write
	RuleInsertOnly
	// RuleRegistration is written on insert and overwritten by every re-registration
	RuleRegistration
	// RuleProfile is only ever written by a profile update
	RuleProfile
	// RuleTimestamp is refreshed by every write
	RuleTimestamp
)

// Column is one row of the merge policy table
type Column struct {
	Name string // SQL column
	BSON string // document key
	Rule Rule
}

// ParticipantColumns is the merge policy for the participants table. The order is the select order used by the
// SQL engines when scanning rows.
var ParticipantColumns = []Column{
	{Name: "user_id", BSON: "_id", Rule: RuleKey},
	{Name: "username", BSON: "username", Rule: RuleInsertOnly},
	{Name: "discord_nickname", BSON: "discord_nickname", Rule: RuleRegistration},
	{Name: "ingame_nickname", BSON: "ingame_nickname", Rule: RuleRegistration},
	{Name: "tier", BSON: "tier", Rule: RuleRegistration},
	{Name: "rank_points", BSON: "rank_points", Rule: RuleRegistration},
	{Name: "most_played_champions", BSON: "most_played_champions", Rule: RuleRegistration},
	{Name: "stats_link", BSON: "stats_link", Rule: RuleRegistration},
	{Name: "profile_image_url", BSON: "profile_image_url", Rule: RuleProfile},
	{Name: "self_introduction", BSON: "self_introduction", Rule: RuleProfile},
	{Name: "updated_at", BSON: "updated_at", Rule: RuleTimestamp},
}

// InsertColumns returns the columns written when a registration creates a new row
func InsertColumns() []Column {
	return filterColumns(RuleKey, RuleInsertOnly, RuleRegistration, RuleTimestamp)
}

// ConflictColumns returns the columns overwritten when a registration hits an existing row
func ConflictColumns() []Column {
	return filterColumns(RuleRegistration, RuleTimestamp)
}

// ProfileColumns returns the columns written by a profile update
func ProfileColumns() []Column {
	return filterColumns(RuleProfile, RuleTimestamp)
}

// ColumnNames returns the SQL names of cols, in order
func ColumnNames(cols []Column) []string {
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		names = append(names, col.Name)
	}
	return names
}

func filterColumns(rules ...Rule) []Column {
	var cols []Column
	for _, col := range ParticipantColumns {
		for _, rule := range rules {
			if col.Rule == rule {
				cols = append(cols, col)
				break
			}
		}
	}
	return cols
}

// fieldValue returns the Go value of column name in p
func fieldValue(p shared.Participant, name string) any {
	switch name {
	case "user_id":
		return p.UserID
	case "username":
		return p.Username
	case "discord_nickname":
		return p.DiscordNickname
	case "ingame_nickname":
		return p.IngameNickname
	case "tier":
		return p.Tier
	case "rank_points":
		return p.RankPoints
	case "most_played_champions":
		return p.MostPlayedChampions
	case "stats_link":
		return p.StatsLink
	case "profile_image_url":
		return p.ImageURL
	case "self_introduction":
		return p.SelfIntroduction
	case "updated_at":
		return p.UpdatedAt
	}
	panic(fmt.Sprintf("store: unknown participant column %q", name))
}

// copyField copies column name from src into dst
func copyField(dst *shared.Participant, src shared.Participant, name string) {
	switch name {
	case "user_id":
		dst.UserID = src.UserID
	case "username":
		dst.Username = src.Username
	case "discord_nickname":
		dst.DiscordNickname = src.DiscordNickname
	case "ingame_nickname":
		dst.IngameNickname = src.IngameNickname
	case "tier":
		dst.Tier = src.Tier
	case "rank_points":
		dst.RankPoints = src.RankPoints
	case "most_played_champions":
		dst.MostPlayedChampions = src.MostPlayedChampions
	case "stats_link":
		dst.StatsLink = src.StatsLink
	case "profile_image_url":
		dst.ImageURL = src.ImageURL
	case "self_introduction":
		dst.SelfIntroduction = src.SelfIntroduction
	case "updated_at":
		dst.UpdatedAt = src.UpdatedAt
	default:
		panic(fmt.Sprintf("store: unknown participant column %q", name))
	}
}

// MergeRegistration applies a registration to an optional existing row following the merge policy.
// Used by engines without a native conflict clause.
func MergeRegistration(existing *shared.Participant, incoming shared.Participant, at time.Time) shared.Participant {
	incoming.UpdatedAt = at
	var merged shared.Participant
	cols := InsertColumns()
	if existing != nil {
		merged = *existing
		cols = ConflictColumns()
	}
	for _, col := range cols {
		copyField(&merged, incoming, col.Name)
	}
	return merged
}

// MergeProfile applies a profile update to an existing row following the merge policy
func MergeProfile(existing shared.Participant, profile shared.Profile, at time.Time) shared.Participant {
	incoming := shared.Participant{Profile: profile, UpdatedAt: at}
	for _, col := range ProfileColumns() {
		copyField(&existing, incoming, col.Name)
	}
	return existing
}
