//go:build !test

/* bot_runtime.go
 * Contains runtime-only Discord bot methods that use *discordgo.Session directly.
 * Delegates to testable handlers in handlers.go and commands.go to avoid code duplication.
 */

package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Run opens the gateway session and serves interactions until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	// create a session
	discord, err := discordgo.New("Bot " + b.BotToken)
	if err != nil {
		return err
	}
	discord.Identify.Intents = discordgo.IntentsGuilds

	// add event handlers
	discord.AddHandler(b.ready)
	discord.AddHandler(b.guildCreate)
	discord.AddHandler(b.interactionCreate)

	// open session
	if err := discord.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer discord.Close() // close session, after function termination

	log.Println("Participant Bot started")
	<-ctx.Done()
	log.Println("Participant Bot stopping")
	return nil
}

// ready syncs the commands to the allowed guild once the session is up
func (b *Bot) ready(discord *discordgo.Session, event *discordgo.Ready) {
	log.Printf("logged in as %s", event.User.Username)
	if err := syncCommandsHandler(discord, event.User.ID, b.GuildID); err != nil {
		log.Printf("failed to sync commands: %v", err)
	}
}

// guildCreate syncs the commands when the bot joins the allowed guild
func (b *Bot) guildCreate(discord *discordgo.Session, event *discordgo.GuildCreate) {
	b.guildCreateHandler(discord, discord.State.User.ID, event.Guild.ID)
}

// interactionCreate delegates to the testable interactionCreateHandler
// *discordgo.Session implements DiscordSession interface
func (b *Bot) interactionCreate(discord *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout())
	defer cancel()
	b.interactionCreateHandler(ctx, discord, i)
}
