package diary

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
)

const maxContentLength = 20000

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type CreateEntryDTO struct {
	Content string `json:"content"`
	Date    string `json:"date"`
}

func (d *CreateEntryDTO) Validate() error {
	d.Content = strings.TrimSpace(d.Content)
	if err := validateContent(d.Content); err != nil {
		return err
	}
	return validateDate(d.Date)
}

// UpdateEntryDTO is a partial entry. Only user-editable fields are accepted;
// enrichment fields are written by the pipeline.
type UpdateEntryDTO struct {
	Content    *string `json:"content"`
	Date       *string `json:"date"`
	Title      *string `json:"title"`
	IsFavorite *bool   `json:"isFavorite"`
}

func (d *UpdateEntryDTO) Validate() error {
	if d.Content != nil {
		trimmed := strings.TrimSpace(*d.Content)
		d.Content = &trimmed
		if err := validateContent(trimmed); err != nil {
			return err
		}
	}
	if d.Date != nil {
		if err := validateDate(*d.Date); err != nil {
			return err
		}
	}
	if d.Title != nil {
		trimmed := strings.TrimSpace(*d.Title)
		if trimmed == "" {
			return apperr.Validation("title must not be empty")
		}
		if utf8.RuneCountInString(trimmed) > 255 {
			return apperr.Validation("title is too long")
		}
		d.Title = &trimmed
	}
	if d.Patch().Empty() {
		return apperr.Validation("nothing to update")
	}
	return nil
}

func (d *UpdateEntryDTO) Patch() models.EntryPatch {
	return models.EntryPatch{
		Content:    d.Content,
		Date:       d.Date,
		Title:      d.Title,
		IsFavorite: d.IsFavorite,
	}
}

func validateContent(content string) error {
	if content == "" {
		return apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return apperr.Validation("content is too long")
	}
	return nil
}

func validateDate(date string) error {
	if !datePattern.MatchString(date) {
		return apperr.Validation("date must be formatted as YYYY-MM-DD")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperr.Validation("date is not a real calendar day")
	}
	return nil
}

type entryResponse struct {
	ID          uint      `json:"id"`
	UserID      string    `json:"userId"`
	Date        string    `json:"date"`
	Content     string    `json:"content"`
	Title       string    `json:"title"`
	Mood        *string   `json:"mood"`
	Emotions    []string  `json:"emotions"`
	ImagePrompt *string   `json:"imagePrompt"`
	ImageURL    *string   `json:"imageUrl"`
	IsFavorite  bool      `json:"isFavorite"`
	Enriched    bool      `json:"enriched"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toResponse(e *models.DiaryEntryModel) entryResponse {
	return entryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Date:        e.Date,
		Content:     e.Content,
		Title:       e.Title,
		Mood:        e.Mood,
		Emotions:    e.Emotions,
		ImagePrompt: e.ImagePrompt,
		ImageURL:    e.ImageURL,
		IsFavorite:  e.IsFavorite,
		Enriched:    e.Enriched(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toResponses(entries []models.DiaryEntryModel) []entryResponse {
	out := make([]entryResponse, len(entries))
	for i := range entries {
		out[i] = toResponse(&entries[i])
	}
	return out
}
