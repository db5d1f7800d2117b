// Package database хранит задачи, результаты по сайтам и обмены с ассистентом в PostgreSQL.
// Использует GORM; схема создается миграциями из каталога migrations.
package database

import "time"

// Job - задача обработки таблицы. ID совпадает с идентификатором задачи в памяти.
type Job struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)"`
	SheetURL       string    `gorm:"type:text;not null"`
	Status         string    `gorm:"type:varchar(32);not null;default:'created'"`
	Error          string    `gorm:"type:text"`
	TotalCompleted int       `gorm:"not null;default:0"`
	TotalErrors    int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// Исходы обработки сайта.
const (
	OutcomeWritten  = "written"
	OutcomeBlank    = "blank"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// SiteResult - итог обработки одной строки таблицы.
type SiteResult struct {
	ID        uint      `gorm:"primaryKey"`
	JobID     string    `gorm:"type:varchar(36);index;not null"`
	Worksheet string    `gorm:"type:text"`
	Row       int       `gorm:"not null"`
	Site      string    `gorm:"type:text;not null"`
	StaffURL  string    `gorm:"type:text"` // Страница персонала, если найдена
	Strategy  string    `gorm:"type:varchar(64)"`
	Phone     string    `gorm:"type:varchar(64)"`
	FirstName string    `gorm:"type:varchar(128)"`
	LastName  string    `gorm:"type:varchar(128)"`
	Doctors   string    `gorm:"type:varchar(16)"`
	Outcome   string    `gorm:"type:varchar(16);not null"`
	Error     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ChatExchange - запрос к ассистенту и его ответ.
type ChatExchange struct {
	ID         uint      `gorm:"primaryKey"`
	JobID      *string   `gorm:"type:varchar(36);index"`
	Site       string    `gorm:"type:text"`
	Kind       string    `gorm:"type:varchar(16);not null"` // nav или staff
	Backend    string    `gorm:"type:varchar(16);not null"` // web или openai
	Model      string    `gorm:"type:varchar(64)"`
	Prompt     string    `gorm:"type:text;not null"`
	Reply      string    `gorm:"type:text"`
	TokensUsed int
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
