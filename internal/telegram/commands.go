package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

const helpText = "🤖 *DealHub Bot Commands:*\n\n" +
	"/start - Initialize bot and get welcome message\n" +
	"/help - Show this help message\n" +
	"/status - Check your account status\n" +
	"/deals - Get latest deals\n\n" +
	"🔔 *Automatic Notifications:*\n" +
	"• New deals in your niche\n" +
	"• Application approvals/rejections\n" +
	"• Payment confirmations\n" +
	"• Direct messages from brands\n\n" +
	"💡 *Tip:* Connect your account in the app settings to receive personalized notifications!"

// Commands holds the state the default command handlers need.
type Commands struct {
	store store.Store
	log   *zerolog.Logger
}

// RegisterDefaultCommands fills the poller's command table with the standard
// DealHub bot grammar.
func RegisterDefaultCommands(p *Poller, st store.Store, logger *zerolog.Logger) {
	c := &Commands{store: st, log: logger}

	p.Handle("/start", c.Start)
	p.Handle("/help", c.Help)
	p.Handle("/status", c.Status)
	p.Handle("/deals", c.Deals)
}

// Start greets the user. When invoked through a deep link the payload
// carries an account identifier; in that case the chat is registered as
// that account's channel binding. Producing the payload (and proving it
// belongs to the invoking user) happens in the app, outside this loop.
func (c *Commands) Start(ctx context.Context, msg *IncomingMessage, args string) string {
	name := "User"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}

	welcome := fmt.Sprintf(
		"👋 Welcome to *DealHub Bot*, %s!\n\n"+
			"I'll keep you updated on:\n"+
			"• 🆕 New deals matching your profile\n"+
			"• 📊 Application status changes\n"+
			"• 💰 Payment updates\n"+
			"• 💬 Messages from brands\n\n"+
			"Use /help for more commands.",
		name,
	)

	if args == "" {
		return welcome
	}

	userID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		c.log.Debug().Str("payload", args).Msg("ignoring malformed start payload")
		return welcome
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if err := c.store.UpsertBinding(ctx, userID, chatID); err != nil {
		c.log.Error().Err(err).Int64("user_id", userID).Msg("failed to register channel binding")
		return welcome + "\n\n⚠️ Linking your account failed, please try again from the app."
	}

	c.log.Info().Int64("user_id", userID).Str("chat_id", chatID).Msg("channel binding registered")
	return welcome + "\n\n🔗 Your account is now linked. Notifications will arrive here."
}

// Help lists the command grammar.
func (c *Commands) Help(_ context.Context, _ *IncomingMessage, _ string) string {
	return helpText
}

// Status reports whether the chat is linked and how many unread
// notifications are waiting.
func (c *Commands) Status(ctx context.Context, msg *IncomingMessage, _ string) string {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	binding, err := c.store.GetBindingByChatID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Error().Err(err).Str("chat_id", chatID).Msg("failed to look up binding")
		}
		return "📊 *Your Account Status:*\n\n" +
			"🔗 *Connection:* Not connected\n\n" +
			"⚙️ Connect your account in the DealHub app to see real status updates!"
	}

	unread, err := c.store.CountUnreadNotifications(ctx, binding.UserID)
	if err != nil {
		c.log.Error().Err(err).Int64("user_id", binding.UserID).Msg("failed to count unread notifications")
		return "📊 Something went wrong fetching your status, please try again later."
	}

	role := "Not set"
	if user, err := c.store.GetUserByID(ctx, binding.UserID); err == nil {
		role = string(user.Role)
	}

	return fmt.Sprintf(
		"📊 *Your Account Status:*\n\n"+
			"🔗 *Connection:* Connected\n"+
			"📱 *Role:* %s\n"+
			"🔔 *Unread notifications:* %d",
		role, unread,
	)
}

// Deals points the user at the app. Deal listings live outside this core.
func (c *Commands) Deals(_ context.Context, _ *IncomingMessage, _ string) string {
	return "🎯 *Latest Deals:*\n\n" +
		"Browse deals directly in the app. New ones matching your profile will be pushed here automatically!"
}
