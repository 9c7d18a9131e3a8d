/* render.go
 * Contains the embeds and buttons sent by the handlers
 */

package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vlakddp4/publicbot/api/api"
	"github.com/vlakddp4/publicbot/api/logic"
	"github.com/vlakddp4/publicbot/api/shared"
)

const (
	colorGreen = 0x2ecc71
	colorBlue  = 0x3498db

	timestampLayout = "2006-01-02 15:04:05"
)

var controlLabels = map[logic.Direction]string{
	logic.DirectionPrevious: "이전 페이지",
	logic.DirectionNext:     "다음 페이지",
}

// participantEmbed renders one participant for myinfo
func participantEmbed(displayName string, p shared.Participant) *discordgo.MessageEmbed {
	intro := p.SelfIntroduction
	if intro == "" {
		intro = "없음"
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s님의 참가 정보", displayName),
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "디스코드 닉네임", Value: p.DiscordNickname},
			{Name: "인게임 닉네임", Value: p.IngameNickname},
			{Name: "티어", Value: p.Tier},
			{Name: "랭크 점수", Value: strconv.Itoa(p.RankPoints)},
			{Name: "모스트 실험체", Value: logic.FormatChampions(p.MostPlayedChampions)},
			{Name: "전적 링크", Value: fmt.Sprintf("[전적](%s)", p.StatsLink)},
			{Name: "자기소개", Value: intro},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "마지막 업데이트: " + formatTimestamp(p.UpdatedAt)},
	}
	if p.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: p.ImageURL}
	}
	return embed
}

// listingEmbed renders one page of the participant listing
func listingEmbed(page api.ParticipantPage) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("페이지 %d/%d의 참가자 목록", page.Number, page.TotalPages),
		Color:  colorBlue,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("페이지 %d / %d", page.Number, page.TotalPages)},
	}
	for _, p := range page.Participants {
		embed.Fields = append(embed.Fields, participantSummaryField(p))
	}
	return embed
}

// searchEmbed renders participant search results
func searchEmbed(query string, matches []shared.Participant) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("'%s' 검색 결과", query),
		Color: colorBlue,
	}
	if len(matches) == 0 {
		embed.Description = "일치하는 참가자가 없습니다."
		return embed
	}
	for _, p := range matches {
		embed.Fields = append(embed.Fields, participantSummaryField(p))
	}
	return embed
}

func participantSummaryField(p shared.Participant) *discordgo.MessageEmbedField {
	var value strings.Builder
	fmt.Fprintf(&value, "인게임 닉네임: %s\n", p.IngameNickname)
	fmt.Fprintf(&value, "티어: %s\n", p.Tier)
	fmt.Fprintf(&value, "랭크 점수: %d\n", p.RankPoints)
	fmt.Fprintf(&value, "모스트 실험체: %s\n", logic.FormatChampions(p.MostPlayedChampions))
	fmt.Fprintf(&value, "[전적 링크](%s)\n", p.StatsLink)
	fmt.Fprintf(&value, "마지막 업데이트: %s", formatTimestamp(p.UpdatedAt))
	return &discordgo.MessageEmbedField{
		Name:  "디스코드 닉네임: " + p.DiscordNickname,
		Value: value.String(),
	}
}

// controlComponents renders the navigation buttons of a page, or nothing for a single page listing
func controlComponents(page logic.Page) []discordgo.MessageComponent {
	controls := page.Controls()
	if len(controls) == 0 {
		return nil
	}
	buttons := make([]discordgo.MessageComponent, 0, len(controls))
	for _, c := range controls {
		buttons = append(buttons, discordgo.Button{
			Label:    controlLabels[c.Direction],
			Style:    discordgo.PrimaryButton,
			CustomID: c.ID(),
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
