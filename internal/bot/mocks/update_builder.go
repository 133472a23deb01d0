package mocks

import "github.com/go-telegram/bot/models"

// UpdateBuilder assembles Telegram updates for handler tests.
type UpdateBuilder struct {
	update models.Update
}

func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{}
}

func sender(userID int64) models.User {
	return models.User{ID: userID, FirstName: "Shop", LastName: "Owner", Username: "shopowner"}
}

func privateChat(chatID int64) models.Chat {
	return models.Chat{ID: chatID, Type: "private"}
}

// message returns the update's message, creating an empty one if needed.
func (b *UpdateBuilder) message() *models.Message {
	if b.update.Message == nil {
		b.WithMessage(0, 0, "")
	}
	return b.update.Message
}

// WithMessage sets a private text message from userID.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	from := sender(userID)
	b.update.Message = &models.Message{ID: 1, Chat: privateChat(chatID), From: &from, Text: text}
	return b
}

func (b *UpdateBuilder) WithMessageID(messageID int) *UpdateBuilder {
	if b.update.Message != nil {
		b.update.Message.ID = messageID
	}
	return b
}

// WithFrom replaces the sender on the message and the callback query, whichever are set.
func (b *UpdateBuilder) WithFrom(userID int64, username, firstName, lastName string) *UpdateBuilder {
	from := models.User{ID: userID, Username: username, FirstName: firstName, LastName: lastName}
	if b.update.Message != nil {
		b.update.Message.From = &from
	}
	if b.update.CallbackQuery != nil {
		b.update.CallbackQuery.From = from
	}
	return b
}

// WithCallbackQuery sets an inline keyboard press on the message messageID.
func (b *UpdateBuilder) WithCallbackQuery(callbackID string, chatID, userID int64, messageID int, data string) *UpdateBuilder {
	b.update.CallbackQuery = &models.CallbackQuery{
		ID:   callbackID,
		From: sender(userID),
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: messageID, Chat: privateChat(chatID)},
		},
	}
	return b
}

// WithPhoto attaches a thumbnail and a full-size photo; fileID names the largest.
func (b *UpdateBuilder) WithPhoto(fileID string) *UpdateBuilder {
	b.message().Photo = []models.PhotoSize{
		{FileID: fileID + "-thumb", FileUniqueID: "u-" + fileID + "-thumb", Width: 320, Height: 240},
		{FileID: fileID, FileUniqueID: "u-" + fileID, Width: 1280, Height: 960},
	}
	return b
}

func (b *UpdateBuilder) WithDocument(fileID, fileName, mimeType string) *UpdateBuilder {
	b.message().Document = &models.Document{
		FileID:       fileID,
		FileUniqueID: "u-" + fileID,
		FileName:     fileName,
		MimeType:     mimeType,
	}
	return b
}

func (b *UpdateBuilder) WithCaption(caption string) *UpdateBuilder {
	if b.update.Message != nil {
		b.update.Message.Caption = caption
	}
	return b
}

// Build returns a copy of the update built so far.
func (b *UpdateBuilder) Build() *models.Update {
	u := b.update
	return &u
}

func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return NewUpdateBuilder().WithMessage(chatID, userID, text).Build()
}

// CommandUpdate is MessageUpdate under a name that reads better for /commands.
func CommandUpdate(chatID, userID int64, command string) *models.Update {
	return MessageUpdate(chatID, userID, command)
}

func CallbackQueryUpdate(chatID, userID int64, messageID int, data string) *models.Update {
	return NewUpdateBuilder().WithCallbackQuery("cbq-1", chatID, userID, messageID, data).Build()
}

func PhotoUpdate(chatID, userID int64, fileID string) *models.Update {
	return NewUpdateBuilder().WithMessage(chatID, userID, "").WithPhoto(fileID).Build()
}

// DocumentUpdate builds a JSON document message, as sent for a restore or catalog import.
func DocumentUpdate(chatID, userID int64, fileID, fileName, caption string) *models.Update {
	return NewUpdateBuilder().
		WithMessage(chatID, userID, "").
		WithDocument(fileID, fileName, "application/json").
		WithCaption(caption).
		Build()
}
