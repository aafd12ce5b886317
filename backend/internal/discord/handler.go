package discord

import (
	"context"
	"strings"

	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/constants"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Answerer runs one question through the pipeline. *agent.Orchestrator
// implements it.
type Answerer interface {
	Answer(ctx context.Context, question string) *agent.Result
}

// Handler answers knowledge base questions sent as DMs or mentions
type Handler struct {
	answerer Answerer
	logger   *zap.Logger
}

// NewHandler creates a new Discord message handler
func NewHandler(answerer Answerer, logger *zap.Logger) *Handler {
	return &Handler{
		answerer: answerer,
		logger:   logger,
	}
}

// HandleMessage processes a Discord message
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	question, ok := extractQuestion(m.Message, s.State.User.ID)
	if !ok {
		return
	}

	h.logger.Info("Processing Discord question",
		zap.String("user_id", m.Author.ID),
		zap.String("channel_id", m.ChannelID),
		zap.Bool("is_dm", m.GuildID == ""),
	)

	_ = s.ChannelTyping(m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), constants.QueryTimeout)
	defer cancel()

	res := h.answerer.Answer(ctx, question)

	h.logger.Debug("Answer ready",
		zap.String("query_id", res.QueryID),
		zap.String("intent", string(res.Intent)),
		zap.Bool("generated", res.Generated),
	)

	for _, chunk := range splitMessage(formatReply(res), constants.DiscordMaxMessageLength) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			h.logger.Error("Failed to send message chunk",
				zap.String("channel_id", m.ChannelID),
				zap.String("query_id", res.QueryID),
				zap.Error(err),
			)
			return
		}
	}
}

// extractQuestion returns the question text of a message addressed to the
// bot. Messages from bots, and guild messages that do not mention the bot,
// are not addressed to it.
func extractQuestion(m *discordgo.Message, botID string) (string, bool) {
	if m == nil || m.Author == nil || m.Author.ID == botID || m.Author.Bot {
		return "", false
	}

	isDM := m.GuildID == ""
	isMentioned := false
	for _, mention := range m.Mentions {
		if mention != nil && mention.ID == botID {
			isMentioned = true
			break
		}
	}

	content := m.Content
	for _, tag := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if strings.Contains(content, tag) {
			isMentioned = true
			content = strings.ReplaceAll(content, tag, " ")
		}
	}
	content = strings.Join(strings.Fields(content), " ")

	if !isDM && !isMentioned {
		return "", false
	}
	if content == "" {
		return "", false
	}
	return content, true
}
