package models

import "time"

// PlaceholderTitle is stored at creation until enrichment writes a real one.
const PlaceholderTitle = "Generating title..."

// DiaryEntryModel is one journal entry. (user_id, date) is unique so a user
// writes at most one entry per calendar day.
type DiaryEntryModel struct {
	ID          uint         `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserID      string       `json:"userId"      gorm:"type:char(36);not null;uniqueIndex:uidx_user_date,priority:1;index:idx_user_created,priority:1"`
	Date        string       `json:"date"        gorm:"type:varchar(10);not null;uniqueIndex:uidx_user_date,priority:2"`
	Content     string       `json:"content"     gorm:"type:text;not null"`
	Title       string       `json:"title"       gorm:"type:varchar(255);not null"`
	Mood        *string      `json:"mood"        gorm:"type:varchar(64);index"`
	Emotions    StringArray  `json:"emotions"    gorm:"type:text"`
	ImagePrompt *string      `json:"imagePrompt" gorm:"type:text"`
	ImageURL    *string      `json:"imageUrl"    gorm:"column:image_url;type:text"`
	IsFavorite  bool         `json:"isFavorite"  gorm:"not null;default:false"`
	CreatedAt   time.Time    `json:"createdAt"   gorm:"index:idx_user_created,priority:2"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (DiaryEntryModel) TableName() string { return "diary_entries" }

// Enriched reports whether the text stage has written its results.
func (e *DiaryEntryModel) Enriched() bool {
	return e.Mood != nil && e.Title != PlaceholderTitle
}

// EntryPatch is a partial update of an entry. Nil fields are left untouched.
type EntryPatch struct {
	Content     *string
	Date        *string
	Title       *string
	Mood        *string
	Emotions    *StringArray
	ImagePrompt *string
	ImageURL    *string
	IsFavorite  *bool
}

// Empty reports whether the patch would change nothing.
func (p EntryPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Columns maps the set fields to their column names.
func (p EntryPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 8)
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Date != nil {
		cols["date"] = *p.Date
	}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Mood != nil {
		cols["mood"] = *p.Mood
	}
	if p.Emotions != nil {
		cols["emotions"] = *p.Emotions
	}
	if p.ImagePrompt != nil {
		cols["image_prompt"] = *p.ImagePrompt
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	if p.IsFavorite != nil {
		cols["is_favorite"] = *p.IsFavorite
	}
	return cols
}
