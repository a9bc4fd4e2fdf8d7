package handlers

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wiki73/P.I.B-bot/internal/dialog"
)

// BotHandler adapts Telegram updates into dialog events and renders the
// engine's replies back to Telegram.
type BotHandler struct {
	bot    *tgbotapi.BotAPI
	engine *dialog.Engine
	log    *slog.Logger
}

func NewBotHandler(bot *tgbotapi.BotAPI, engine *dialog.Engine, log *slog.Logger) *BotHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BotHandler{bot: bot, engine: engine, log: log}
}

func (h *BotHandler) HandleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		h.handleMessage(update.Message)
	}
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(update.CallbackQuery)
	}
}

func displayName(from *tgbotapi.User) string {
	if from.UserName != "" {
		return from.UserName
	}
	return from.FirstName
}

func isGroup(chat *tgbotapi.Chat) bool {
	return chat.IsGroup() || chat.IsSuperGroup()
}

func (h *BotHandler) handleMessage(message *tgbotapi.Message) {
	var action dialog.Action
	if message.IsCommand() {
		action = dialog.Action{
			Kind:    dialog.KindCommand,
			Command: message.Command(),
			Text:    message.CommandArguments(),
		}
	} else {
		action = dialog.Action{Kind: dialog.KindText, Text: message.Text}
	}

	replies := h.engine.HandleEvent(dialog.Event{
		UserID: message.From.ID,
		Name:   displayName(message.From),
		ChatID: message.Chat.ID,
		Group:  isGroup(message.Chat),
		Action: action,
	})
	// Plain messages leave nothing to edit in place.
	h.deliver(replies, 0, 0)
}

func (h *BotHandler) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	action, ok := decodeCallback(query.Data)
	if !ok {
		h.log.Warn("unknown callback", "data", query.Data)
		h.answerCallback(query, "")
		return
	}

	replies := h.engine.HandleEvent(dialog.Event{
		UserID: query.From.ID,
		Name:   displayName(query.From),
		ChatID: query.Message.Chat.ID,
		Group:  isGroup(query.Message.Chat),
		Action: action,
	})
	h.deliver(replies, query.Message.Chat.ID, query.Message.MessageID)
	h.answerCallback(query, "")
}

// deliver sends the engine's replies. A reply with Edit set updates the
// message the action came from when that message is known; everything else
// goes out as a new message, possibly into a different chat.
func (h *BotHandler) deliver(replies []dialog.Reply, editChatID int64, editMessageID int) {
	for _, reply := range replies {
		markup := h.markup(reply.Keyboard)

		if reply.Edit && editMessageID != 0 && reply.ChatID == editChatID {
			if markup != nil {
				edit := tgbotapi.NewEditMessageTextAndMarkup(reply.ChatID, editMessageID, reply.Text, *markup)
				if _, err := h.bot.Send(edit); err != nil {
					h.log.Error("edit message", "chat", reply.ChatID, "err", err)
				}
			} else {
				edit := tgbotapi.NewEditMessageText(reply.ChatID, editMessageID, reply.Text)
				if _, err := h.bot.Send(edit); err != nil {
					h.log.Error("edit message", "chat", reply.ChatID, "err", err)
				}
			}
			continue
		}

		msg := tgbotapi.NewMessage(reply.ChatID, reply.Text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		if _, err := h.bot.Send(msg); err != nil {
			h.log.Error("send message", "chat", reply.ChatID, "err", err)
		}
	}
}

func (h *BotHandler) answerCallback(query *tgbotapi.CallbackQuery, text string) {
	callback := tgbotapi.NewCallback(query.ID, text)
	if _, err := h.bot.Request(callback); err != nil {
		h.log.Error("answer callback", "err", err)
	}
}
