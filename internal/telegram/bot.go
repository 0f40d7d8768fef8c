// Package telegram exposes the meal-kit plan, cart and shopping list as a
// Telegram bot driven by a webhook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"meal-kit/internal/app"
	"meal-kit/internal/config"
	"meal-kit/internal/planner"
)

// commandTimeout bounds a single command, recipe import included.
const commandTimeout = 2 * time.Minute

// Bot wraps the Telegram API and the application.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
	cfg *config.Config
	log logrus.FieldLogger

	signInMu    sync.Mutex
	restoreOnce sync.Once
	now         func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, log logrus.FieldLogger) (*Bot, error) {
	if err := cfg.RequireTelegram(); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Infof("authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook for %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Infof("webhook set response: %s", resp.Description)

	return newBot(api, a, cfg, log), nil
}

func newBot(api *tgbotapi.BotAPI, a *app.App, cfg *config.Config, log logrus.FieldLogger) *Bot {
	return &Bot{api: api, app: a, cfg: cfg, log: log, now: time.Now}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.log.WithError(err).Warn("error parsing update")
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	if !b.allowed(from.ID) {
		b.log.Warnf("unauthorized access attempt from user %d (@%s)", from.ID, from.UserName)
		return
	}

	go b.processMessage(update.Message)
}

// allowed reports whether userID may talk to the bot. The admin always may.
func (b *Bot) allowed(userID int64) bool {
	if b.cfg.AdminTelegramID != 0 && userID == b.cfg.AdminTelegramID {
		return true
	}
	return slices.Contains(b.cfg.TelegramAllowedUserIDs, userID)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	text := b.reply(ctx, msg.From.ID, msg.Text)
	if text == "" {
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		b.log.WithError(err).Warnf("failed to send reply to chat %d", msg.Chat.ID)
	}
}

// reply runs one message against the application and returns the Markdown
// answer. Messages that are neither a command nor a URL get the help text.
func (b *Bot) reply(ctx context.Context, userID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if err := b.signIn(ctx, userID); err != nil {
		b.log.WithError(err).Warnf("failed to sign in telegram user %d", userID)
		return errorText("Sign-in failed", err)
	}

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return b.importRecipe(ctx, text)
	}
	if !strings.HasPrefix(text, "/") {
		return helpText
	}

	fields := strings.Fields(text)
	cmd, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	args := fields[1:]
	b.log.WithField("user", userID).Debugf("command /%s %v", cmd, args)

	switch strings.ToLower(cmd) {
	case "start", "help":
		return helpText
	case "recipes":
		return formatRecipes(b.app.Catalog.List())
	case "add":
		return b.addToPlan(ctx, args)
	case "remove":
		return b.removeFromPlan(ctx, args)
	case "plan":
		return b.withWeek(args, func(week time.Time) string {
			return formatPlan(week, b.app.Plan.Snapshot())
		})
	case "stats":
		return b.withWeek(args, func(week time.Time) string {
			return formatStats(week, b.app.Stats(week))
		})
	case "shopping":
		return b.withWeek(args, func(week time.Time) string {
			list, err := b.app.ShoppingList(ctx, week)
			if err != nil {
				return errorText("Error building shopping list", err)
			}
			return formatShoppingList(list)
		})
	case "weeks":
		return b.listWeeks(ctx)
	case "cart":
		return formatCart(b.app.Cart.Items(), b.app.Cart.Total())
	case "plantocart":
		return b.withWeek(args, func(week time.Time) string {
			n, err := b.app.AddPlanToCart(ctx, week)
			if err != nil {
				return errorText("Error filling cart", err)
			}
			return fmt.Sprintf("🛒 Added %d kits to your cart.\n\n%s", n, formatCart(b.app.Cart.Items(), b.app.Cart.Total()))
		})
	case "checkout":
		o, err := b.app.Checkout(ctx, strings.Join(args, " "), "telegram")
		if err != nil {
			return errorText("Checkout failed", err)
		}
		return formatOrder(o)
	case "metrics":
		if b.cfg.AdminTelegramID == 0 || userID != b.cfg.AdminTelegramID {
			return "⛔ *Access Denied*: Admin only."
		}
		usage, err := b.app.Usage(ctx, 7)
		if err != nil {
			return errorText("Error fetching metrics", err)
		}
		return formatMetrics(usage, b.app.Health())
	}
	return fmt.Sprintf("Unknown command /%s.\n\n%s", cmd, helpText)
}

// signIn makes the Telegram user the application user. The first contact
// also reloads the plan saved for the current week. Updates are handled
// concurrently, so sign-ins run one at a time.
func (b *Bot) signIn(ctx context.Context, userID int64) error {
	b.signInMu.Lock()
	defer b.signInMu.Unlock()

	if _, err := b.app.EnsureUser(ctx, strconv.FormatInt(userID, 10)+"@telegram.local"); err != nil {
		return err
	}
	b.restoreOnce.Do(func() {
		if b.app.Plan.Snapshot().RecipeCount() > 0 {
			return
		}
		if _, err := b.app.RestorePlan(ctx, planner.WeekStart(b.now())); err != nil {
			b.log.WithError(err).Warn("failed to restore saved plan")
		}
	})
	return nil
}

// withWeek resolves the optional date argument to a week and runs fn.
func (b *Bot) withWeek(args []string, fn func(week time.Time) string) string {
	week := planner.WeekStart(b.now())
	if len(args) > 0 {
		d, err := planner.ParseDate(args[0])
		if err != nil {
			return errorText("Invalid date", err)
		}
		week = planner.WeekStart(d)
	}
	return fn(week)
}

func (b *Bot) addToPlan(ctx context.Context, args []string) string {
	if len(args) != 3 {
		return "Usage: `/add <YYYY-MM-DD> <breakfast|lunch|dinner> <recipe-id>`"
	}
	date, err := planner.ParseDate(args[0])
	if err != nil {
		return errorText("Invalid date", err)
	}
	meal, err := planner.ParseMealType(args[1])
	if err != nil {
		return errorText("Invalid slot", err)
	}
	r, err := b.app.Catalog.Get(args[2])
	if err != nil {
		return errorText("Unknown recipe", err)
	}
	if err := b.app.Plan.AddRecipeToSlot(date, meal, r); err != nil {
		return errorText("Error updating plan", err)
	}
	b.savePlan(ctx, date)
	return fmt.Sprintf("✅ *%s* planned for %s on %s.", r.Title, meal, planner.DateKey(date))
}

func (b *Bot) removeFromPlan(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return "Usage: `/remove <YYYY-MM-DD> <breakfast|lunch|dinner>`"
	}
	date, err := planner.ParseDate(args[0])
	if err != nil {
		return errorText("Invalid date", err)
	}
	meal, err := planner.ParseMealType(args[1])
	if err != nil {
		return errorText("Invalid slot", err)
	}
	if err := b.app.Plan.RemoveRecipeFromSlot(date, meal); err != nil {
		return errorText("Error updating plan", err)
	}
	b.savePlan(ctx, date)
	return fmt.Sprintf("🗑 %s on %s is free again.", meal, planner.DateKey(date))
}

// historySize bounds the snapshots /weeks looks at.
const historySize = 20

func (b *Bot) listWeeks(ctx context.Context) string {
	history, err := b.app.PlanHistory(ctx, historySize)
	if err != nil {
		return errorText("Error listing saved plans", err)
	}
	next := planner.GetNextMonday(b.now())
	planned, err := b.app.HasSavedPlan(ctx, next)
	if err != nil {
		return errorText("Error listing saved plans", err)
	}
	return formatWeeks(history, next, planned)
}

func (b *Bot) savePlan(ctx context.Context, date time.Time) {
	if _, err := b.app.SavePlan(ctx, planner.WeekStart(date)); err != nil {
		b.log.WithError(err).Warn("failed to save meal plan")
	}
}

func (b *Bot) importRecipe(ctx context.Context, url string) string {
	r, err := b.app.ImportRecipe(ctx, url)
	if errors.Is(err, app.ErrExtractionDisabled) {
		return "✂️ Recipe import is not configured on this bot."
	}
	if err != nil {
		b.log.WithError(err).Warnf("error clipping recipe from %s", url)
		return errorText("Error clipping recipe", err)
	}
	return fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*ID:* `%s`", r.Title, r.ID)
}
