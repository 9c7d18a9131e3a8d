/* commands.go
 * Contains the slash command definitions synced to the allowed guild. Names are English with Korean localizations
 */

package bot

import (
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/vlakddp4/publicbot/api/logic"
)

const (
	cmdRegister           = "register"
	cmdCancel             = "cancel"
	cmdMyInfo             = "myinfo"
	cmdUpdateProfile      = "update-profile"
	cmdCheckRegistration  = "check-registration"
	cmdParticipants       = "participants"
	cmdSearchParticipants = "search-participants"
)

// Option names
const (
	optDiscordNickname     = "discord_nickname"
	optIngameNickname      = "ingame_nickname"
	optTier                = "tier"
	optRankPoints          = "rank_points"
	optMostPlayedChampions = "most_played_champions"
	optStatsLink           = "stats_link"
	optSelfIntroduction    = "self_introduction"
	optProfileImage        = "profile_image"
	optPage                = "page"
	optQuery               = "query"
)

func ko(value string) *map[discordgo.Locale]string {
	return &map[discordgo.Locale]string{discordgo.Korean: value}
}

// Commands returns the slash commands the bot serves
func Commands() []*discordgo.ApplicationCommand {
	var (
		minZero     = 0.0
		minOne      = 1.0
		adminPerms  = int64(discordgo.PermissionAdministrator)
		noDM        = false
		nicknameMax = logic.MaxNicknameLength
	)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     cmdRegister,
			NameLocalizations:        ko("내전참가"),
			Description:              "Join the in-house tournament",
			DescriptionLocalizations: ko("내전에 참가합니다."),
			DMPermission:             &noDM,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: optDiscordNickname, NameLocalizations: *ko("디스코드닉네임"), Description: "Discord nickname", Required: true, MaxLength: nicknameMax},
				{Type: discordgo.ApplicationCommandOptionString, Name: optIngameNickname, NameLocalizations: *ko("인게임닉네임"), Description: "In-game nickname", Required: true, MaxLength: nicknameMax},
				{Type: discordgo.ApplicationCommandOptionString, Name: optTier, NameLocalizations: *ko("티어"), Description: "Current tier", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: optRankPoints, NameLocalizations: *ko("랭크점수"), Description: "Rank points", Required: true, MinValue: &minZero},
				{Type: discordgo.ApplicationCommandOptionString, Name: optMostPlayedChampions, NameLocalizations: *ko("모스트실험체"), Description: "Most played characters, comma separated", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: optStatsLink, NameLocalizations: *ko("전적링크"), Description: "dak.gg profile link", Required: true},
			},
		},
		{
			Name:                     cmdCancel,
			NameLocalizations:        ko("내전취소"),
			Description:              "Cancel your tournament registration",
			DescriptionLocalizations: ko("내전 참가를 취소합니다."),
			DMPermission:             &noDM,
		},
		{
			Name:                     cmdMyInfo,
			NameLocalizations:        ko("내정보"),
			Description:              "Show your registration",
			DescriptionLocalizations: ko("나의 참가 정보를 조회합니다."),
			DMPermission:             &noDM,
		},
		{
			Name:                     cmdUpdateProfile,
			NameLocalizations:        ko("내정보수정"),
			Description:              "Update your profile image and self introduction",
			DescriptionLocalizations: ko("본인의 프로필 이미지와 자기소개를 수정합니다."),
			DMPermission:             &noDM,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: optSelfIntroduction, NameLocalizations: *ko("자기소개"), Description: "Self introduction", MaxLength: 1024},
				{Type: discordgo.ApplicationCommandOptionAttachment, Name: optProfileImage, NameLocalizations: *ko("프로필이미지"), Description: "Profile image"},
			},
		},
		{
			Name:                     cmdCheckRegistration,
			NameLocalizations:        ko("내전참가확인"),
			Description:              "Check whether you are registered (only visible to you)",
			DescriptionLocalizations: ko("내전에 참가했는지 확인합니다 (본인만 확인 가능)"),
			DMPermission:             &noDM,
		},
		{
			Name:                     cmdParticipants,
			NameLocalizations:        ko("참가자정보"),
			Description:              "List every participant, page by page",
			DescriptionLocalizations: ko("전체 참가자 정보를 페이지 형식으로 확인합니다"),
			DMPermission:             &noDM,
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: optPage, NameLocalizations: *ko("페이지"), Description: "Page number", MinValue: &minOne},
			},
		},
		{
			Name:                     cmdSearchParticipants,
			NameLocalizations:        ko("참가자검색"),
			Description:              "Search participants by nickname",
			DescriptionLocalizations: ko("닉네임으로 참가자를 검색합니다"),
			DMPermission:             &noDM,
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: optQuery, NameLocalizations: *ko("검색어"), Description: "Nickname to search for", Required: true},
			},
		},
	}
}

// syncCommandsHandler overwrites the guild's commands with Commands
func syncCommandsHandler(registrar CommandRegistrar, appID string, guildID string) error {
	created, err := registrar.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	if err != nil {
		return err
	}
	log.Printf("synced %d commands to guild %s", len(created), guildID)
	return nil
}

// guildCreateHandler syncs the commands when the allowed guild becomes available and ignores every other guild
func (b *Bot) guildCreateHandler(registrar CommandRegistrar, appID string, guildID string) {
	if guildID != b.GuildID {
		log.Printf("guild %s is not the allowed guild (%s), ignoring", guildID, b.GuildID)
		return
	}
	if err := syncCommandsHandler(registrar, appID, guildID); err != nil {
		log.Printf("failed to sync commands to guild %s: %v", guildID, err)
	}
}
