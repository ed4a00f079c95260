package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTutor   Role = "TUTOR"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole приводит строку из слоя авторизации к закрытому набору ролей
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	TelegramChatID *int64    `json:"telegram_chat_id"` // nil - уведомления не отправляются
	CreatedAt      time.Time `json:"created_at"`
}

// UserSummary краткая информация об участнике бронирования
type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	TelegramChatID *int64    `json:"-"`
}
