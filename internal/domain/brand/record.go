package brand

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BrandRecord is the persisted result of one onboarding attempt. PromptData
// holds zero or one Prompt Set snapshot; curation commits replace it wholesale.
type BrandRecord struct {
	ID         string                         `gorm:"type:varchar(64);primaryKey" json:"id"`
	BrandName  string                         `gorm:"column:brand_name;not null" json:"brandName"`
	URL        string                         `gorm:"column:url;not null" json:"url"`
	PromptData datatypes.JSONSlice[PromptSet] `gorm:"column:prompt_data" json:"promptData"`
	CreatedAt  time.Time                      `gorm:"not null;index" json:"createdAt"`
	UpdatedAt  time.Time                      `gorm:"not null" json:"updatedAt"`
}

func (BrandRecord) TableName() string { return "brand_record" }

func (r *BrandRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// CurrentPromptSet returns the single stored snapshot, if any.
func (r *BrandRecord) CurrentPromptSet() (PromptSet, bool) {
	if r == nil || len(r.PromptData) == 0 {
		return PromptSet{}, false
	}
	return r.PromptData[0], true
}

// RecordPage is one page of records, newest first.
type RecordPage struct {
	Data       []*BrandRecord `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// RecordFilter narrows a listing. Query matches brand name or URL and
// BrandName matches brand name, both as case-insensitive substrings. URL is
// an exact match. Empty fields do not filter.
type RecordFilter struct {
	Query     string `json:"q,omitempty"`
	BrandName string `json:"brandName,omitempty"`
	URL       string `json:"url,omitempty"`
}

func (f RecordFilter) Normalize() RecordFilter {
	return RecordFilter{
		Query:     strings.TrimSpace(f.Query),
		BrandName: strings.TrimSpace(f.BrandName),
		URL:       strings.TrimSpace(f.URL),
	}
}

// RecordStats counts records created in total and since each calendar boundary.
type RecordStats struct {
	Total     int64     `json:"total"`
	Today     int64     `json:"today"`
	ThisWeek  int64     `json:"thisWeek"`
	ThisMonth int64     `json:"thisMonth"`
	AsOf      time.Time `json:"asOf"`
}

// StatsWindows are the inclusive lower bounds used by RecordStats.
type StatsWindows struct {
	Day   time.Time
	Week  time.Time
	Month time.Time
}

// WindowsAt returns UTC start of day, start of week (Sunday) and start of
// month for now.
func WindowsAt(now time.Time) StatsWindows {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return StatsWindows{
		Day:   day,
		Week:  day.AddDate(0, 0, -int(day.Weekday())),
		Month: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id is a well-formed record identifier. Well-formed
// ids may still refer to nothing.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
