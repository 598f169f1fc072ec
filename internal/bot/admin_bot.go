package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"playearn/internal/domain"
	"playearn/internal/logger"
	"playearn/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of the Telegram client the bot needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminBot handles admin commands via Telegram
type AdminBot struct {
	bot          *tgbotapi.BotAPI
	out          sender
	adminService *service.AdminService
	adminIDs     []int64 // Telegram user IDs who can use admin commands
	stopCh       chan struct{}
	wg           sync.WaitGroup
	log          *slog.Logger
}

// NewAdminBot creates a new admin bot
func NewAdminBot(token string, adminService *service.AdminService, adminIDs []int64) (*AdminBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newAdminBot(bot, adminService, adminIDs)
	b.bot = bot
	b.log.Info("admin bot authorized", "username", bot.Self.UserName)
	return b, nil
}

func newAdminBot(out sender, adminService *service.AdminService, adminIDs []int64) *AdminBot {
	return &AdminBot{
		out:          out,
		adminService: adminService,
		adminIDs:     adminIDs,
		stopCh:       make(chan struct{}),
		log:          logger.With("component", "admin_bot"),
	}
}

// Start starts listening for commands
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || update.Message.From == nil {
				continue
			}

			// Check if user is admin
			if !b.isAdmin(update.Message.From.ID) || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	if b.bot != nil {
		b.bot.StopReceivingUpdates()
	}

	// Wait for pending handlers with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

// isAdmin checks if user is an admin
func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response := b.handleCommand(ctx, msg.From.ID, msg.Command(), msg.CommandArguments())

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.out.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// handleCommand processes admin commands
func (b *AdminBot) handleCommand(ctx context.Context, fromID int64, command, args string) string {
	adminID := "tg:" + strconv.FormatInt(fromID, 10)
	args = strings.TrimSpace(args)

	switch command {
	case "start", "help":
		return helpMessage()
	case "stats":
		return b.handleStats(ctx)
	case "withdrawals":
		return b.handleWithdrawals(ctx)
	case "approve":
		return b.handleApprove(ctx, adminID, args)
	case "reject":
		return b.handleReject(ctx, adminID, args)
	case "suspects":
		return b.handleSuspects(ctx)
	case "clear":
		return b.handleClear(ctx, adminID, args)
	case "user":
		return b.handleUser(ctx, args)
	case "ban":
		return b.handleStatus(ctx, adminID, args, domain.UserStatusBanned)
	case "unban":
		return b.handleStatus(ctx, adminID, args, domain.UserStatusActive)
	default:
		return "❌ Unknown command. Use /help for the command list."
	}
}

func helpMessage() string {
	return `<b>🤖 Admin commands</b>

<b>📊 Overview:</b>
/stats - Pending payouts and suspects

<b>💸 Withdrawals:</b>
/withdrawals - Pending withdrawals
/approve &lt;id&gt; - Mark as paid
/reject &lt;id&gt; [reason] - Reject and refund

<b>🚨 Fraud:</b>
/suspects - Flagged users
/clear &lt;user_id&gt; - Lift the review flag

<b>👤 Users:</b>
/user &lt;user_id&gt; - User details
/ban &lt;user_id&gt; - Block
/unban &lt;user_id&gt; - Unblock`
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	stats, err := b.adminService.GetStats(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Error: %v", err)
	}

	return fmt.Sprintf(`<b>📊 Stats</b>

• Pending withdrawals: %d
• Pending amount: %s
• Users under review: %d`,
		stats.PendingWithdrawals,
		stats.PendingAmount,
		stats.Suspects,
	)
}

func (b *AdminBot) handleWithdrawals(ctx context.Context) string {
	withdrawals, err := b.adminService.GetPendingWithdrawals(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Error: %v", err)
	}

	if len(withdrawals) == 0 {
		return "✅ No pending withdrawals"
	}

	var sb strings.Builder
	sb.WriteString("<b>💸 Pending withdrawals</b>\n\n")

	for _, w := range withdrawals {
		flag := ""
		if w.Suspect {
			flag = " 🚨"
		}
		sb.WriteString(fmt.Sprintf("🆔 <code>%s</code> | %s%s\n", w.ID, html.EscapeString(w.UserName), flag))
		sb.WriteString(fmt.Sprintf("💰 %s via %s\n", w.Amount, html.EscapeString(w.Method)))
		sb.WriteString(fmt.Sprintf("💳 <code>%s</code>\n", html.EscapeString(w.Destination)))
		sb.WriteString(fmt.Sprintf("📅 %s\n\n", w.RequestedAt.Format("02.01.2006 15:04")))
	}

	sb.WriteString("\n/approve <id> - mark as paid\n/reject <id> <reason> - reject")

	return sb.String()
}

func (b *AdminBot) handleApprove(ctx context.Context, adminID, args string) string {
	if args == "" {
		return "❌ Usage: /approve <id>"
	}

	w, err := b.adminService.ApproveWithdrawal(ctx, adminID, args)
	if err != nil {
		return fmt.Sprintf("❌ Error: %v", err)
	}

	return fmt.Sprintf("✅ Withdrawal <code>%s</code> approved (%s)", w.ID, w.Amount())
}

func (b *AdminBot) handleReject(ctx context.Context, adminID, args string) string {
	id, reason, _ := strings.Cut(args, " ")
	if id == "" {
		return "❌ Usage: /reject <id> [reason]"
	}

	w, err := b.adminService.RejectWithdrawal(ctx, adminID, id, strings.TrimSpace(reason))
	if err != nil {
		return fmt.Sprintf("❌ Error: %v", err)
	}

	return fmt.Sprintf("❌ Withdrawal <code>%s</code> rejected. %d coins refunded.", w.ID, w.CoinsDeducted)
}

func (b *AdminBot) handleSuspects(ctx context.Context) string {
	suspects, err := b.adminService.GetSuspects(ctx, 3)
	if err != nil {
		return fmt.Sprintf("❌ Error: %v", err)
	}

	if len(suspects) == 0 {
		return "✅ No users under review"
	}

	var sb strings.Builder
	sb.WriteString("<b>🚨 Users under review</b>\n\n")

	for _, s := range suspects {
		sb.WriteString(fmt.Sprintf("👤 <code>%s</code> | %s | 🪙%d\n", s.User.ID, html.EscapeString(s.User.Name), s.User.Coins))
		for _, f := range s.Flags {
			sb.WriteString(fmt.Sprintf("  • %s: %s (%s)\n", f.Type, html.EscapeString(f.Details), f.CreatedAt.Format("02.01 15:04")))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("/clear <user_id> - lift the flag")
	return sb.String()
}

func (b *AdminBot) handleClear(ctx context.Context, adminID, args string) string {
	if args == "" {
		return "❌ Usage: /clear <user_id>"
	}

	if err := b.adminService.ClearSuspect(ctx, adminID, args); err != nil {
		return fmt.Sprintf("❌ Error: %v", err)
	}

	return fmt.Sprintf("✅ User <code>%s</code> cleared", html.EscapeString(args))
}

func (b *AdminBot) handleUser(ctx context.Context, args string) string {
	if args == "" {
		return "❌ Usage: /user <user_id>"
	}

	user, withdrawals, err := b.adminService.GetUser(ctx, args)
	if err != nil {
		return fmt.Sprintf("❌ User not found: %v", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<b>👤 User</b>

• ID: <code>%s</code>
• Name: %s
• Email: %s
• Device: <code>%s</code>
• Status: %s
• 🪙 Coins: %d (%s)
• 🎮 Played: %d min, %d games
• 📺 Ads today: %d, total: %d
• 🚨 Under review: %v
• 📅 Registered: %s`,
		user.ID,
		html.EscapeString(user.Name),
		html.EscapeString(user.Email),
		html.EscapeString(user.DeviceID),
		user.Status,
		user.Coins,
		user.MoneyBalance().StringFixed(2),
		user.TotalPlaySeconds/60,
		user.DistinctGames,
		user.AdsToday,
		user.AdsTotal,
		user.Suspect,
		user.CreatedAt.Format("02.01.2006 15:04"),
	))

	if len(withdrawals) > 0 {
		sb.WriteString("\n\n<b>💸 Withdrawals:</b>\n")
		for _, w := range withdrawals {
			sb.WriteString(fmt.Sprintf("• %s %s (%s)\n", w.Amount(), w.Status, w.RequestedAt.Format("02.01 15:04")))
		}
	}

	return sb.String()
}

func (b *AdminBot) handleStatus(ctx context.Context, adminID, args string, status domain.UserStatus) string {
	if args == "" {
		return "❌ Usage: /ban <user_id> or /unban <user_id>"
	}

	if err := b.adminService.SetUserStatus(ctx, adminID, args, status); err != nil {
		return fmt.Sprintf("❌ Error: %v", err)
	}

	if status == domain.UserStatusBanned {
		return fmt.Sprintf("🚫 User <code>%s</code> blocked", html.EscapeString(args))
	}
	return fmt.Sprintf("✅ User <code>%s</code> unblocked", html.EscapeString(args))
}

// Notify implements service.Notifier. Messages are sent in the background.
func (b *AdminBot) Notify(_ context.Context, e domain.AdminEvent) {
	message := eventMessage(e)
	if message == "" {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.notifyAdmins(message)
	}()
}

func (b *AdminBot) notifyAdmins(message string) {
	for _, adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = "HTML"
		if _, err := b.out.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}

func eventMessage(e domain.AdminEvent) string {
	switch {
	case e.Type == domain.EventWithdrawalRequested && e.Withdrawal != nil:
		w := e.Withdrawal
		return fmt.Sprintf(`🔔 <b>New withdrawal request!</b>

👤 User: <code>%s</code>
💰 Amount: %s (%d coins)
💳 %s: <code>%s</code>

ID: <code>%s</code>

/approve %s - mark as paid
/reject %s reason - reject`,
			w.UserID, w.Amount(), w.CoinsDeducted, html.EscapeString(w.Method), html.EscapeString(w.Destination),
			w.ID, w.ID, w.ID)

	case e.Type == domain.EventUserFlagged && e.Flag != nil:
		return fmt.Sprintf(`🚨 <b>User flagged</b>

👤 User: <code>%s</code>
• %s: %s

/user %s - details
/clear %s - lift the flag`,
			e.UserID, e.Flag.Type, html.EscapeString(e.Flag.Details), e.UserID, e.UserID)
	}
	return ""
}
