/* bot.go
 * Contains the Bot struct and its construction. Requires a discord bot token, the id of the one guild the bot serves
 * and an APIPtr, all of which are passed in from main.go
 */

package bot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vlakddp4/publicbot/api/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds the store and network work of one interaction
const DefaultTimeout = 10 * time.Second

// DefaultConfirmationTTL is how long public confirmations stay in the channel
const DefaultConfirmationTTL = 60 * time.Second

const tracerName = "github.com/vlakddp4/publicbot/bot"

type Bot struct {
	BotToken string
	GuildID  string
	APIPtr   *api.API
	Timeout  time.Duration

	// ConfirmationTTL removes public register, cancel and myinfo replies after this long. Zero keeps them
	ConfirmationTTL time.Duration

	tracer    trace.Tracer
	afterFunc func(time.Duration, func())
}

// NewBot creates a Bot
// Preconditions: Receives a bot token, the allowed guild id and an API
// Postconditions: Returns the Bot, or an error if the token or guild id is missing
func NewBot(botToken string, guildID string, apiPtr *api.API) (*Bot, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if strings.TrimSpace(guildID) == "" {
		return nil, fmt.Errorf("guildID is required but none was provided")
	}
	if apiPtr == nil {
		return nil, fmt.Errorf("apiPtr is required but none was provided")
	}

	return &Bot{
		BotToken: botToken,
		GuildID:  guildID,
		APIPtr:   apiPtr,
		Timeout:         DefaultTimeout,
		ConfirmationTTL: DefaultConfirmationTTL,
		tracer:          otel.Tracer(tracerName),
	}, nil
}

func (b *Bot) getTracer() trace.Tracer {
	if b.tracer == nil {
		return otel.Tracer(tracerName)
	}
	return b.tracer
}

func (b *Bot) timeout() time.Duration {
	if b.Timeout <= 0 {
		return DefaultTimeout
	}
	return b.Timeout
}

// scheduleDelete removes the interaction's original response once ConfirmationTTL has passed
func (b *Bot) scheduleDelete(session DiscordSession, interaction *discordgo.Interaction, invocationID string) {
	if b.ConfirmationTTL <= 0 {
		return
	}
	after := b.afterFunc
	if after == nil {
		after = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	after(b.ConfirmationTTL, func() {
		if err := session.InteractionResponseDelete(interaction); err != nil {
			log.Printf("[%s] failed to delete expired confirmation: %v", invocationID, err)
		}
	})
}
