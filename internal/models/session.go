package models

import "time"

// UserSession backs one issued token. Revoked or expired rows no longer authenticate.
type UserSession struct {
	Base
	UserID    string     `json:"userId"    gorm:"type:char(36);index;not null"`
	IP        string     `json:"ip"        gorm:"type:varchar(64)"`
	UA        string     `json:"userAgent" gorm:"type:text"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revokedAt" gorm:"index"`
}

func (UserSession) TableName() string { return "user_sessions" }
