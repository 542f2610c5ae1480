package models

import (
	"time"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          *string   `gorm:"size:255" json:"email"`
	ExternalAuthID *string   `gorm:"size:128;uniqueIndex" json:"externalAuthId"` // 第三方登录 ID，匿名用户为空
	Avatar         string    `gorm:"size:16" json:"avatar"`                      // emoji 头像
	Reputation     int       `gorm:"not null;default:0" json:"reputation"`
	IsAnonymous    bool      `gorm:"not null" json:"isAnonymous"`
	CreatedAt      time.Time `json:"createdAt"`
	// No DeletedAt for hard delete
}
