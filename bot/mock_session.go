/* mock_session.go
 * Contains mock implementation of DiscordSession and CommandRegistrar for testing
 */

package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// MockDiscordSession implements DiscordSession and CommandRegistrar for testing purposes
type MockDiscordSession struct {
	// Responses stores every initial interaction response
	Responses []*discordgo.InteractionResponse
	// Followups stores every follow-up message
	Followups []*discordgo.WebhookParams
	// DeletedOriginals counts deletions of the original response
	DeletedOriginals int
	// Synced stores the commands overwritten per guild id
	Synced map[string][]*discordgo.ApplicationCommand

	// Errors allow tests to simulate failures
	RespondError  error
	FollowupError error
	DeleteError   error
	SyncError     error
}

// NewMockDiscordSession creates a new MockDiscordSession for testing
func NewMockDiscordSession() *MockDiscordSession {
	return &MockDiscordSession{
		Synced: make(map[string][]*discordgo.ApplicationCommand),
	}
}

// InteractionRespond implements DiscordSession.InteractionRespond
func (m *MockDiscordSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	if m.RespondError != nil {
		return m.RespondError
	}
	m.Responses = append(m.Responses, resp)
	return nil
}

// FollowupMessageCreate implements DiscordSession.FollowupMessageCreate
func (m *MockDiscordSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.FollowupError != nil {
		return nil, m.FollowupError
	}
	m.Followups = append(m.Followups, data)
	return &discordgo.Message{
		ID:      fmt.Sprintf("followup_%d", len(m.Followups)),
		Content: data.Content,
		Embeds:  data.Embeds,
	}, nil
}

// InteractionResponseDelete implements DiscordSession.InteractionResponseDelete
func (m *MockDiscordSession) InteractionResponseDelete(_ *discordgo.Interaction, _ ...discordgo.RequestOption) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.DeletedOriginals++
	return nil
}

// ApplicationCommandBulkOverwrite implements CommandRegistrar.ApplicationCommandBulkOverwrite
func (m *MockDiscordSession) ApplicationCommandBulkOverwrite(_ string, guildID string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	if m.SyncError != nil {
		return nil, m.SyncError
	}
	m.Synced[guildID] = commands
	return commands, nil
}

// LastResponse returns the last initial response, or nil if none
func (m *MockDiscordSession) LastResponse() *discordgo.InteractionResponse {
	if len(m.Responses) == 0 {
		return nil
	}
	return m.Responses[len(m.Responses)-1]
}

// LastFollowup returns the last follow-up, or nil if none
func (m *MockDiscordSession) LastFollowup() *discordgo.WebhookParams {
	if len(m.Followups) == 0 {
		return nil
	}
	return m.Followups[len(m.Followups)-1]
}

// Replies counts the messages a user would see: immediate replies plus follow-ups. Deferrals are not replies
func (m *MockDiscordSession) Replies() int {
	n := len(m.Followups)
	for _, r := range m.Responses {
		if r.Type == discordgo.InteractionResponseChannelMessageWithSource {
			n++
		}
	}
	return n
}
