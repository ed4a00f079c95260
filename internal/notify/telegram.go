// Package notify доставляет уведомления участникам бронирования
package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageSender отправка сообщений, реализуется *bot.Bot
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// DetailsReader читает бронирование со слотом и участниками
type DetailsReader interface {
	GetDetails(ctx context.Context, id uuid.UUID) (*model.BookingDetails, error)
}

// TelegramNotifier пишет участнику в Telegram, если у него привязан чат
type TelegramNotifier struct {
	sender   MessageSender
	bookings DetailsReader
	logger   *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, bookings DetailsReader, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:   sender,
		bookings: bookings,
		logger:   logger,
	}
}

// BookingReserved сообщает учителю о новой записи
func (n *TelegramNotifier) BookingReserved(ctx context.Context, booking *model.Booking) error {
	d, err := n.details(ctx, booking.ID)
	if err != nil {
		return err
	}

	return n.send(ctx, d.Tutor, reservedText(d))
}

// BookingStatusChanged сообщает второй стороне о смене статуса
func (n *TelegramNotifier) BookingStatusChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus, actorID uuid.UUID) error {
	d, err := n.details(ctx, booking.ID)
	if err != nil {
		return err
	}

	recipient, actor := d.Tutor, d.Student
	if actorID == d.TutorUserID {
		recipient, actor = d.Student, d.Tutor
	}

	n.logger.Debug("Notifying about status change",
		zap.String("booking_id", booking.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(d.Status)))

	return n.send(ctx, recipient, statusChangedText(d, actor.Name))
}

// ReviewSubmitted сообщает учителю о новом отзыве
func (n *TelegramNotifier) ReviewSubmitted(ctx context.Context, review *model.Review) error {
	d, err := n.details(ctx, review.BookingID)
	if err != nil {
		return err
	}

	return n.send(ctx, d.Tutor, reviewText(d, review))
}

func (n *TelegramNotifier) details(ctx context.Context, bookingID uuid.UUID) (*model.BookingDetails, error) {
	d, err := n.bookings.GetDetails(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking details: %w", err)
	}
	if d == nil {
		return nil, model.NewBookingNotFoundError(bookingID)
	}
	return d, nil
}

func (n *TelegramNotifier) send(ctx context.Context, to model.UserSummary, text string) error {
	if to.TelegramChatID == nil {
		n.logger.Debug("Recipient has no telegram chat, skipping",
			zap.String("user_id", to.ID.String()))
		return nil
	}

	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *to.TelegramChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}
