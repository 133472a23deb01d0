package bot

import (
	tgbot "github.com/go-telegram/bot"
	"gitlab.com/yelinaung/repair-ledger/internal/bot/mocks"
)

// TelegramAPI is declared in mocks so the fake and the handlers share it
// without an import cycle.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*tgbot.Bot)(nil)
