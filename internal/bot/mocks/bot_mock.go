// Package mocks provides a recording fake of the Telegram API for handler tests.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI is the slice of the Telegram client the handlers use. It lives
// here rather than in package bot so the fake can be imported by bot's tests.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

// SentMessage is a recorded SendMessage call.
type SentMessage struct {
	ChatID      any
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// EditedMessage is a recorded EditMessageText call.
type EditedMessage struct {
	ChatID      any
	MessageID   int
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// AnsweredCallback is a recorded AnswerCallbackQuery call.
type AnsweredCallback struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// SentDocument is a recorded SendDocument call. Data holds the uploaded
// bytes so tests can decode backups, CSVs and charts.
type SentDocument struct {
	ChatID    any
	Filename  string
	Data      []byte
	Caption   string
	ParseMode models.ParseMode
}

var _ TelegramAPI = (*MockBot)(nil)

// MockBot records every call. Set the *Error fields to make the matching
// call fail.
type MockBot struct {
	mu sync.RWMutex

	SentMessages      []SentMessage
	EditedMessages    []EditedMessage
	AnsweredCallbacks []AnsweredCallback
	SentDocuments     []SentDocument

	SendMessageError  error
	EditMessageError  error
	GetFileError      error
	SendDocumentError error

	// FileToReturn overrides the File returned by GetFile.
	FileToReturn *models.File

	// FileDownloadLinkToReturn overrides the link, usually with an httptest URL.
	FileDownloadLinkToReturn string

	// NextMessageID is assigned to the next sent message or document.
	NextMessageID int
}

const defaultDownloadLink = "https://api.telegram.org/file/bot123/documents/test.json"

// NewMockBot returns an empty MockBot.
func NewMockBot() *MockBot {
	m := &MockBot{}
	m.Reset()
	return m
}

// Reset forgets recorded calls and configured errors.
func (m *MockBot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentMessages = []SentMessage{}
	m.EditedMessages = []EditedMessage{}
	m.AnsweredCallbacks = []AnsweredCallback{}
	m.SentDocuments = []SentDocument{}
	m.SendMessageError, m.EditMessageError, m.GetFileError, m.SendDocumentError = nil, nil, nil, nil
	if m.NextMessageID == 0 {
		m.NextMessageID = 1000
	}
}

// nextID must be called with mu held.
func (m *MockBot) nextID() int {
	id := m.NextMessageID
	m.NextMessageID++
	return id
}

func (m *MockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}
	m.SentMessages = append(m.SentMessages, SentMessage{
		ChatID:      params.ChatID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})
	return &models.Message{ID: m.nextID(), Chat: models.Chat{ID: chatID(params.ChatID)}, Text: params.Text}, nil
}

func (m *MockBot) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EditMessageError != nil {
		return nil, m.EditMessageError
	}
	m.EditedMessages = append(m.EditedMessages, EditedMessage{
		ChatID:      params.ChatID,
		MessageID:   params.MessageID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})
	return &models.Message{ID: params.MessageID, Chat: models.Chat{ID: chatID(params.ChatID)}, Text: params.Text}, nil
}

func (m *MockBot) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnsweredCallbacks = append(m.AnsweredCallbacks, AnsweredCallback{
		CallbackQueryID: params.CallbackQueryID,
		Text:            params.Text,
		ShowAlert:       params.ShowAlert,
	})
	return true, nil
}

func (m *MockBot) GetFile(_ context.Context, params *bot.GetFileParams) (*models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.GetFileError != nil:
		return nil, m.GetFileError
	case m.FileToReturn != nil:
		return m.FileToReturn, nil
	}
	return &models.File{FileID: params.FileID, FilePath: "documents/" + params.FileID}, nil
}

func (m *MockBot) FileDownloadLink(_ *models.File) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FileDownloadLinkToReturn != "" {
		return m.FileDownloadLinkToReturn
	}
	return defaultDownloadLink
}

func (m *MockBot) SendDocument(_ context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendDocumentError != nil {
		return nil, m.SendDocumentError
	}

	doc := SentDocument{ChatID: params.ChatID, Caption: params.Caption, ParseMode: params.ParseMode}
	if upload, ok := params.Document.(*models.InputFileUpload); ok {
		doc.Filename = upload.Filename
		if upload.Data != nil {
			data, err := io.ReadAll(upload.Data)
			if err != nil {
				return nil, err
			}
			doc.Data = data
		}
	}
	m.SentDocuments = append(m.SentDocuments, doc)

	return &models.Message{
		ID:       m.nextID(),
		Chat:     models.Chat{ID: chatID(params.ChatID)},
		Caption:  params.Caption,
		Document: &models.Document{FileID: "mock_file_id", FileName: doc.Filename},
	}, nil
}

// last returns a pointer to the final element, or nil for an empty slice.
func last[T any](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

// LastSentMessage returns the most recent message, or nil.
func (m *MockBot) LastSentMessage() *SentMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.SentMessages)
}

// LastEditedMessage returns the most recent edit, or nil.
func (m *MockBot) LastEditedMessage() *EditedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.EditedMessages)
}

// LastSentDocument returns the most recent document, or nil.
func (m *MockBot) LastSentDocument() *SentDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.SentDocuments)
}

func (m *MockBot) SentMessageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentMessages)
}

func (m *MockBot) SentDocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentDocuments)
}

func chatID(v any) int64 {
	switch id := v.(type) {
	case int64:
		return id
	case int:
		return int64(id)
	}
	return 0
}
