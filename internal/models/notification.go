// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	BaseModel
	UserID  uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Type    NotificationType `json:"type" gorm:"type:varchar(30);not null;index"`
	Message string           `json:"message" gorm:"type:text;not null"`
	OrderID *uuid.UUID       `json:"order_id,omitempty" gorm:"type:uuid;index"`
	Read    bool             `json:"read" gorm:"not null;default:false;index"`
	ReadAt  *time.Time       `json:"read_at,omitempty"`
}
