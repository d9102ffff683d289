package telegram

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/dialog"

	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v3"
)

type chatSession struct {
	session *dialog.Session
	lastUse time.Time
	mu      sync.Mutex
}

// Bot runs the assistant as a Telegram bot. Each Telegram chat gets its own
// dialog session, so staged actions never leak between chats.
type Bot struct {
	bot        *tele.Bot
	engine     *dialog.Engine
	creds      calendar.Credentials
	sessions   map[int64]*chatSession
	sessionsMu sync.RWMutex
}

// NewBot creates a Telegram adapter around the dialog engine. The bot token is
// read from TELEGRAM_BOT_TOKEN.
func NewBot(engine *dialog.Engine, creds calendar.Credentials) (*Bot, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	adapter := &Bot{
		bot:      b,
		engine:   engine,
		creds:    creds,
		sessions: make(map[int64]*chatSession),
	}

	adapter.setupHandlers()
	return adapter, nil
}

// Start begins long-polling for messages and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	log.Printf("[telegram] starting bot (@%s)", b.bot.Me.Username)

	go b.cleanupLoop(ctx)

	go func() {
		<-ctx.Done()
		log.Println("[telegram] shutting down bot...")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}

func (b *Bot) setupHandlers() {
	b.bot.Handle("/start", func(c tele.Context) error {
		return c.Send("👋 Hi! I can add, list, update and delete events on your Google Calendar. Just tell me what you need.")
	})

	b.bot.Handle("/cancel", func(c tele.Context) error {
		chatID := c.Chat().ID
		b.sessionsMu.RLock()
		cs, exists := b.sessions[chatID]
		b.sessionsMu.RUnlock()
		if exists {
			cs.mu.Lock()
			cs.session.ClearPending()
			cs.mu.Unlock()
		}
		return c.Send("❌ Calendar event cancelled.")
	})

	b.bot.Handle(tele.OnText, b.handleMessage)
}

func (b *Bot) handleMessage(c tele.Context) error {
	chatID := c.Chat().ID
	text := c.Text()

	_ = c.Notify(tele.Typing)

	cs := b.getSession(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lastUse = time.Now()

	turnCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reply := b.engine.HandleMessage(turnCtx, cs.session, text)
	if reply.Data.Message == "" {
		return c.Send("🤷 I don't have a response for that.")
	}

	return sendLongMessage(c, reply.Data.Message)
}

func (b *Bot) getSession(chatID int64) *chatSession {
	b.sessionsMu.RLock()
	cs, exists := b.sessions[chatID]
	b.sessionsMu.RUnlock()

	if exists {
		return cs
	}

	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	// Check again in case it was created while waiting for the lock
	if cs, exists := b.sessions[chatID]; exists {
		return cs
	}

	log.Printf("[telegram] new session for chat %d", chatID)
	cs = &chatSession{
		session: dialog.NewSession(b.creds),
		lastUse: time.Now(),
	}
	b.sessions[chatID] = cs
	return cs
}

func (b *Bot) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sessionsMu.Lock()
			for id, cs := range b.sessions {
				// Expire sessions inactive for more than 2 hours
				if time.Since(cs.lastUse) > 2*time.Hour {
					log.Printf("[telegram] expiring inactive session for chat %d", id)
					delete(b.sessions, id)
				}
			}
			b.sessionsMu.Unlock()
		}
	}
}

// sendLongMessage splits and sends text if it exceeds Telegram's 4096 char limit.
func sendLongMessage(c tele.Context, text string) error {
	const maxLen = 4000 // leave a little buffer
	var err error

	for len(text) > 0 {
		if len(text) > maxLen {
			err = c.Send(text[:maxLen])
			text = text[maxLen:]
		} else {
			err = c.Send(text)
			text = ""
		}
		if err != nil {
			return err
		}
	}
	return nil
}
