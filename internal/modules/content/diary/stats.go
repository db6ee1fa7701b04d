package diary

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
)

const (
	dateLayout     = "2006-01-02"
	topEmotionsMax = 5
)

// Stats summarizes a user's journal.
type Stats struct {
	TotalEntries     int            `json:"totalEntries"`
	FavoriteEntries  int            `json:"favoriteEntries"`
	EntriesThisMonth int            `json:"entriesThisMonth"`
	CurrentStreak    int            `json:"currentStreak"`
	LongestStreak    int            `json:"longestStreak"`
	LastEntryDate    *string        `json:"lastEntryDate"`
	MoodCounts       map[string]int `json:"moodCounts"`
	TopEmotions      []EmotionCount `json:"topEmotions"`
}

type EmotionCount struct {
	Emotion string `json:"emotion"`
	Count   int    `json:"count"`
}

type statsRow struct {
	Date       string
	Mood       *string
	Emotions   models.StringArray
	IsFavorite bool
}

// Stats computes journal statistics. Streaks and "this month" use the
// owner's timezone, falling back to fallback when it is unset or invalid.
func (s *Service) Stats(ctx context.Context, ownerID string, now time.Time, fallback *time.Location) (*Stats, error) {
	loc := s.ownerLocation(ctx, ownerID, fallback)

	var rows []statsRow
	err := s.db.WithContext(ctx).
		Model(&models.DiaryEntryModel{}).
		Select("date, mood, emotions, is_favorite").
		Where("user_id = ?", ownerID).
		Order("date").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Storage("entry stats", err)
	}
	return computeStats(rows, now.In(loc)), nil
}

func (s *Service) ownerLocation(ctx context.Context, ownerID string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	var tz string
	err := s.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Select("timezone").
		Where("id = ?", ownerID).
		Scan(&tz).Error
	if err != nil || strings.TrimSpace(tz) == "" {
		return fallback
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fallback
	}
	return loc
}

func computeStats(rows []statsRow, today time.Time) *Stats {
	st := &Stats{
		MoodCounts:  make(map[string]int),
		TopEmotions: []EmotionCount{},
	}
	month := today.Format("2006-01")
	emotionCounts := make(map[string]int)
	days := make([]time.Time, 0, len(rows))

	for _, r := range rows {
		st.TotalEntries++
		if r.IsFavorite {
			st.FavoriteEntries++
		}
		if strings.HasPrefix(r.Date, month) {
			st.EntriesThisMonth++
		}
		if r.Mood != nil && *r.Mood != "" {
			st.MoodCounts[strings.ToLower(*r.Mood)]++
		}
		for _, e := range r.Emotions {
			emotionCounts[strings.ToLower(e)]++
		}
		if d, err := time.Parse(dateLayout, r.Date); err == nil {
			days = append(days, d)
		}
	}

	for e, n := range emotionCounts {
		st.TopEmotions = append(st.TopEmotions, EmotionCount{Emotion: e, Count: n})
	}
	sort.Slice(st.TopEmotions, func(i, j int) bool {
		if st.TopEmotions[i].Count != st.TopEmotions[j].Count {
			return st.TopEmotions[i].Count > st.TopEmotions[j].Count
		}
		return st.TopEmotions[i].Emotion < st.TopEmotions[j].Emotion
	})
	if len(st.TopEmotions) > topEmotionsMax {
		st.TopEmotions = st.TopEmotions[:topEmotionsMax]
	}

	if len(days) == 0 {
		return st
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	last := days[len(days)-1].Format(dateLayout)
	st.LastEntryDate = &last

	run := 1
	st.LongestStreak = 1
	for i := 1; i < len(days); i++ {
		switch daysBetween(days[i-1], days[i]) {
		case 0:
			continue
		case 1:
			run++
		default:
			run = 1
		}
		if run > st.LongestStreak {
			st.LongestStreak = run
		}
	}

	// The current streak survives until the end of the day after the last entry.
	todayDate, _ := time.Parse(dateLayout, today.Format(dateLayout))
	if gap := daysBetween(days[len(days)-1], todayDate); gap == 0 || gap == 1 {
		st.CurrentStreak = run
	}
	return st
}

// daysBetween counts calendar days from a to b; both are UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
