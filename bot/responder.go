/* responder.go
 * Contains the responder that guarantees exactly one user visible reply per interaction: either an immediate reply,
 * or a deferral followed by exactly one follow-up
 */

package bot

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

var errAlreadyResponded = errors.New("interaction already answered")

// reply is the content of a response, independent of how it is delivered
type reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

type responder struct {
	session     DiscordSession
	interaction *discordgo.Interaction
	deferred    bool
	sent        bool
}

func newResponder(session DiscordSession, interaction *discordgo.Interaction) *responder {
	return &responder{session: session, interaction: interaction}
}

// Defer acknowledges a command. The visibility of the eventual follow-up is fixed here
func (r *responder) Defer(ephemeral bool) error {
	if r.deferred || r.sent {
		return errAlreadyResponded
	}
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		return err
	}
	r.deferred = true
	return nil
}

// DeferUpdate acknowledges a component activation without changing its message
func (r *responder) DeferUpdate() error {
	if r.deferred || r.sent {
		return errAlreadyResponded
	}
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		return err
	}
	r.deferred = true
	return nil
}

// Send delivers the one reply of the interaction, as a follow-up if it was deferred
func (r *responder) Send(rep reply) error {
	if r.sent {
		return errAlreadyResponded
	}
	r.sent = true

	var flags discordgo.MessageFlags
	if rep.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	if r.deferred {
		_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
			Content:    rep.Content,
			Embeds:     rep.Embeds,
			Components: rep.Components,
			Flags:      flags,
		})
		return err
	}
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    rep.Content,
			Embeds:     rep.Embeds,
			Components: rep.Components,
			Flags:      flags,
		},
	})
}
