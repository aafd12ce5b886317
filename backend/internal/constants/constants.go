package constants

import "time"

// User-facing messages for outcomes that skip answer generation
const (
	// MsgUnknownQuery is returned when no entity or risk level was recognized
	MsgUnknownQuery = "Sorry, I couldn't fully understand your query based on the available patterns or known entities. Please try rephrasing using terms from the knowledge base explorer."

	// MsgDataUnavailable is returned when no knowledge base is loaded
	MsgDataUnavailable = "Application Error: Knowledge base data failed to load. Cannot process query."

	// MsgNoInformationFormat is returned when the lookup found nothing; %s is the query
	MsgNoInformationFormat = "Could not find relevant information in the knowledge base for: '%s'."

	// AnswerErrorPrefix starts every answer that reports a generation failure
	AnswerErrorPrefix = "Error: "
)

// Discord constants
const (
	// DiscordMaxMessageLength is the maximum character limit for Discord messages
	DiscordMaxMessageLength = 2000
)

// Timeouts
const (
	// QueryTimeout bounds one full question, including answer generation
	QueryTimeout = 60 * time.Second

	// ReloadTimeout bounds a knowledge base reload
	ReloadTimeout = 2 * time.Minute

	// ShutdownTimeout is the grace period for in-flight requests on shutdown
	ShutdownTimeout = 5 * time.Second
)

// MaxQueryLength caps the accepted question size in bytes
const MaxQueryLength = 1000
