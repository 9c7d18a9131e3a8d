/* handlers.go
 * Contains testable handler methods that accept the DiscordSession interface. Every interaction goes through the same
 * steps: scope check, permission check for admin commands, execution through the API, then exactly one reply
 */

package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/vlakddp4/publicbot/api/logic"
	"github.com/vlakddp4/publicbot/api/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// searchLimit is the most results a participant search shows
const searchLimit = 10

const msgUnknownCommand = "알 수 없는 명령어입니다."

// invocation is one incoming command or control activation
type invocation struct {
	id          string
	command     string
	user        shared.User
	mention     string
	interaction *discordgo.Interaction
}

type commandFunc func(b *Bot, ctx context.Context, inv invocation, data discordgo.ApplicationCommandInteractionData) (reply, error)

// route describes how a command is answered
type route struct {
	adminOnly bool
	deferred  bool // acknowledge before running, reply with a follow-up
	ephemeral bool // visibility of the deferred reply
	expires   bool // a public reply is removed after ConfirmationTTL
	run       commandFunc
}

var commandRoutes = map[string]route{
	cmdRegister:           {expires: true, run: (*Bot).registerCommand},
	cmdCancel:             {expires: true, run: (*Bot).cancelCommand},
	cmdMyInfo:             {expires: true, run: (*Bot).myInfoCommand},
	cmdUpdateProfile:      {deferred: true, run: (*Bot).updateProfileCommand},
	cmdCheckRegistration:  {run: (*Bot).checkRegistrationCommand},
	cmdParticipants:       {adminOnly: true, deferred: true, ephemeral: true, run: (*Bot).participantsCommand},
	cmdSearchParticipants: {adminOnly: true, deferred: true, ephemeral: true, run: (*Bot).searchParticipantsCommand},
}

// interactionCreateHandler routes an interaction to the command or control handler
func (b *Bot) interactionCreateHandler(ctx context.Context, session DiscordSession, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.commandHandler(ctx, session, i.Interaction)
	case discordgo.InteractionMessageComponent:
		if logic.IsControlID(i.MessageComponentData().CustomID) {
			b.listingControlHandler(ctx, session, i.Interaction)
		}
	}
}

// commandHandler answers a slash command
func (b *Bot) commandHandler(ctx context.Context, session DiscordSession, interaction *discordgo.Interaction) {
	data := interaction.ApplicationCommandData()
	inv, invErr := newInvocation(data.Name, interaction)
	ctx, span := b.startSpan(ctx, inv)
	defer span.End()

	r := newResponder(session, interaction)
	rt, ok := commandRoutes[data.Name]
	if !ok {
		log.Printf("[%s] unknown command %q", inv.id, data.Name)
		b.send(r, inv, reply{Content: msgUnknownCommand, Ephemeral: true})
		return
	}

	err := b.authorize(interaction, rt.adminOnly)
	if err == nil {
		err = invErr
	}
	if err != nil {
		b.sendError(span, r, inv, err)
		return
	}

	if rt.deferred {
		if err := r.Defer(rt.ephemeral); err != nil {
			log.Printf("[%s] failed to defer /%s: %v", inv.id, inv.command, err)
			return
		}
	}

	rep, err := rt.run(b, ctx, inv, data)
	if err != nil {
		b.sendError(span, r, inv, err)
		return
	}
	if b.send(r, inv, rep) && rt.expires && !rep.Ephemeral {
		b.scheduleDelete(session, interaction, inv.id)
	}
}

// listingControlHandler answers a listing navigation button. The activation is acknowledged first and every outcome,
// rejections included, is sent as the follow-up. The previous page is removed once the new one is sent
func (b *Bot) listingControlHandler(ctx context.Context, session DiscordSession, interaction *discordgo.Interaction) {
	customID := interaction.MessageComponentData().CustomID
	inv, invErr := newInvocation(cmdParticipants, interaction)
	ctx, span := b.startSpan(ctx, inv)
	defer span.End()
	span.SetAttributes(attribute.String("discord.custom_id", customID))

	r := newResponder(session, interaction)
	if err := r.DeferUpdate(); err != nil {
		log.Printf("[%s] failed to acknowledge control %s: %v", inv.id, customID, err)
		return
	}

	err := b.authorize(interaction, true)
	if err == nil {
		err = invErr
	}
	var control logic.Control
	if err == nil {
		control, err = logic.ParseControlID(customID)
	}
	var rep reply
	if err == nil {
		rep, err = b.listingReply(ctx, control.Page)
	}
	if err != nil {
		b.sendError(span, r, inv, err)
		return
	}

	if !b.send(r, inv, rep) {
		return
	}
	if err := session.InteractionResponseDelete(interaction); err != nil {
		log.Printf("[%s] failed to delete previous page: %v", inv.id, err)
	}
}

// region Commands

func (b *Bot) registerCommand(ctx context.Context, inv invocation, data discordgo.ApplicationCommandInteractionData) (reply, error) {
	opts := optionMap(data.Options)
	reg := shared.Registration{
		DiscordNickname:     stringOption(opts, optDiscordNickname),
		IngameNickname:      stringOption(opts, optIngameNickname),
		Tier:                stringOption(opts, optTier),
		RankPoints:          intOption(opts, optRankPoints, 0),
		MostPlayedChampions: stringOption(opts, optMostPlayedChampions),
		StatsLink:           stringOption(opts, optStatsLink),
	}
	if err := b.APIPtr.Register(ctx, inv.user, reg); err != nil {
		return reply{}, err
	}
	return reply{Content: fmt.Sprintf("%s님이 내전에 참가하셨습니다!", inv.mention)}, nil
}

func (b *Bot) cancelCommand(ctx context.Context, inv invocation, _ discordgo.ApplicationCommandInteractionData) (reply, error) {
	if err := b.APIPtr.Cancel(ctx, inv.user.UserID); err != nil {
		return reply{}, err
	}
	return reply{Content: fmt.Sprintf("%s님의 내전 참가가 취소되었습니다.", inv.mention)}, nil
}

func (b *Bot) myInfoCommand(ctx context.Context, inv invocation, _ discordgo.ApplicationCommandInteractionData) (reply, error) {
	p, err := b.APIPtr.MyInfo(ctx, inv.user.UserID)
	if err != nil {
		return reply{}, err
	}
	return reply{Embeds: []*discordgo.MessageEmbed{participantEmbed(inv.user.Username, p)}}, nil
}

func (b *Bot) updateProfileCommand(ctx context.Context, inv invocation, data discordgo.ApplicationCommandInteractionData) (reply, error) {
	opts := optionMap(data.Options)
	image, err := attachmentOption(data, opts, optProfileImage)
	if err != nil {
		return reply{}, err
	}
	if _, err := b.APIPtr.UpdateProfile(ctx, inv.user.UserID, stringOption(opts, optSelfIntroduction), image); err != nil {
		return reply{}, err
	}
	return reply{Content: fmt.Sprintf("%s님의 정보가 업데이트되었습니다!", inv.mention)}, nil
}

func (b *Bot) checkRegistrationCommand(ctx context.Context, inv invocation, _ discordgo.ApplicationCommandInteractionData) (reply, error) {
	registered, err := b.APIPtr.IsRegistered(ctx, inv.user.UserID)
	if err != nil {
		return reply{}, err
	}
	if registered {
		return reply{Content: fmt.Sprintf("%s님은 내전에 참가하고 있습니다.", inv.mention), Ephemeral: true}, nil
	}
	return reply{Content: fmt.Sprintf("%s님은 내전에 참가하고 있지 않습니다.", inv.mention), Ephemeral: true}, nil
}

func (b *Bot) participantsCommand(ctx context.Context, _ invocation, data discordgo.ApplicationCommandInteractionData) (reply, error) {
	return b.listingReply(ctx, intOption(optionMap(data.Options), optPage, 1))
}

func (b *Bot) searchParticipantsCommand(ctx context.Context, _ invocation, data discordgo.ApplicationCommandInteractionData) (reply, error) {
	query := stringOption(optionMap(data.Options), optQuery)
	matches, err := b.APIPtr.SearchParticipants(ctx, query, searchLimit)
	if err != nil {
		return reply{}, err
	}
	return reply{Embeds: []*discordgo.MessageEmbed{searchEmbed(query, matches)}, Ephemeral: true}, nil
}

// listingReply runs the listing from scratch for page. Commands and controls both land here
func (b *Bot) listingReply(ctx context.Context, page int) (reply, error) {
	listing, err := b.APIPtr.ListParticipants(ctx, page)
	if err != nil {
		return reply{}, err
	}
	return reply{
		Embeds:     []*discordgo.MessageEmbed{listingEmbed(listing)},
		Components: controlComponents(listing.Page),
		Ephemeral:  true,
	}, nil
}

// endregion

// authorize runs the scope check and, for admin commands, the permission check
func (b *Bot) authorize(interaction *discordgo.Interaction, adminOnly bool) error {
	if interaction.GuildID == "" || interaction.GuildID != b.GuildID {
		return ErrScopeRejected
	}
	if adminOnly && (interaction.Member == nil || interaction.Member.Permissions&discordgo.PermissionAdministrator == 0) {
		return ErrPermissionDenied
	}
	return nil
}

// sendError classifies err, logs the kinds that hide their cause, and sends the rendered message
func (b *Bot) sendError(span trace.Span, r *responder, inv invocation, err error) {
	kind := classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())

	switch kind {
	case kindStorage, kindUnknown, kindImageUnavailable:
		log.Printf("[%s] /%s for user %d failed (%s): %v", inv.id, inv.command, inv.user.UserID, kind, err)
	}
	b.send(r, inv, reply{Content: errorText(kind, err), Ephemeral: true})
}

// send delivers the reply and reports whether it went out
func (b *Bot) send(r *responder, inv invocation, rep reply) bool {
	if err := r.Send(rep); err != nil {
		log.Printf("[%s] failed to reply to /%s: %v", inv.id, inv.command, err)
		return false
	}
	return true
}

func (b *Bot) startSpan(ctx context.Context, inv invocation) (context.Context, trace.Span) {
	return b.getTracer().Start(ctx, "interaction "+inv.command, trace.WithAttributes(
		attribute.String("invocation.id", inv.id),
		attribute.String("discord.guild_id", inv.interaction.GuildID),
		attribute.Int64("discord.user_id", inv.user.UserID),
	))
}

// newInvocation identifies the invoking user. The error is reported after the scope check
func newInvocation(command string, interaction *discordgo.Interaction) (invocation, error) {
	inv := invocation{
		id:          uuid.NewString(),
		command:     command,
		interaction: interaction,
	}

	user := interaction.User
	if interaction.Member != nil && interaction.Member.User != nil {
		user = interaction.Member.User
	}
	if user == nil {
		return inv, fmt.Errorf("interaction %s has no user", interaction.ID)
	}
	userID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return inv, fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	inv.user = shared.User{UserID: userID, Username: user.Username}
	inv.mention = user.Mention()
	return inv, nil
}

// region Options

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	opt, ok := opts[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return opt.StringValue()
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, fallback int) int {
	opt, ok := opts[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionInteger {
		return fallback
	}
	return int(opt.IntValue())
}

// attachmentOption resolves an attachment option. An absent option is nil, an unresolvable one is rejected
func attachmentOption(data discordgo.ApplicationCommandInteractionData, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (*shared.Attachment, error) {
	opt, ok := opts[name]
	if !ok {
		return nil, nil
	}
	id, _ := opt.Value.(string)
	if data.Resolved == nil || data.Resolved.Attachments[id] == nil {
		return nil, &logic.ValidationError{Reason: logic.ReasonInvalidImage}
	}
	att := data.Resolved.Attachments[id]
	return &shared.Attachment{
		URL:         att.URL,
		Filename:    att.Filename,
		ContentType: att.ContentType,
		Size:        att.Size,
	}, nil
}

// endregion
