package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
)

// StatusDisplay отображение статуса бронирования
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса бронирования
func GetStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:   {"⏳", "Ожидает подтверждения"},
		model.BookingStatusConfirmed: {"✅", "Подтверждена"},
		model.BookingStatusCompleted: {"✔️", "Завершена"},
		model.BookingStatusCancelled: {"❌", "Отменена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// formatSlot описывает время занятия; слот мог быть удалён после отмены
func formatSlot(slot *model.AvailabilitySlot) string {
	if slot == nil {
		return "время не указано"
	}
	return fmt.Sprintf("%s, %s", slot.StartTime.Format("02.01.2006"), FormatTimeRange(slot.StartTime, slot.EndTime))
}

func formatRating(rating int) string {
	return strings.Repeat("⭐", rating)
}

func reservedText(d *model.BookingDetails) string {
	return fmt.Sprintf(
		"📅 <b>Новая запись</b>\n\n"+
			"👤 Студент: %s\n"+
			"🕐 Время: %s",
		html.EscapeString(d.Student.Name),
		formatSlot(d.Slot),
	)
}

func statusChangedText(d *model.BookingDetails, actor string) string {
	display := GetStatusDisplay(d.Status)
	return fmt.Sprintf(
		"%s <b>Статус записи изменён</b>\n\n"+
			"🕐 Время: %s\n"+
			"📊 Статус: %s\n"+
			"👤 Изменил: %s",
		display.Emoji,
		formatSlot(d.Slot),
		display.Text,
		html.EscapeString(actor),
	)
}

func reviewText(d *model.BookingDetails, review *model.Review) string {
	text := fmt.Sprintf(
		"💬 <b>Новый отзыв</b>\n\n"+
			"👤 Студент: %s\n"+
			"🕐 Занятие: %s\n"+
			"Оценка: %s",
		html.EscapeString(d.Student.Name),
		formatSlot(d.Slot),
		formatRating(review.Rating),
	)
	if review.Comment != "" {
		text += "\n\n" + html.EscapeString(review.Comment)
	}
	return text
}
