package pcmm

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Element is the top of the assessment hierarchy. Levels is only populated for
// projects assessed in simplified mode.
type Element struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModelID uuid.UUID `gorm:"type:uuid;not null;index" json:"model_id"`

	Name         string `gorm:"column:name;not null" json:"name"`
	Abbreviation string `gorm:"column:abbreviation;index" json:"abbreviation"`
	Color        string `gorm:"column:color" json:"color,omitempty"`
	Position     int    `gorm:"column:position;not null;default:0" json:"position"`

	Subelements []Subelement `gorm:"foreignKey:ElementID" json:"subelements,omitempty"`
	Levels      []Level      `gorm:"foreignKey:ElementID" json:"levels,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Element) TableName() string { return "pcmm_element" }

// HasLevels reports whether the element is directly assessable.
func (e *Element) HasLevels() bool {
	return e != nil && len(e.Levels) > 0
}

type Subelement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ElementID uuid.UUID `gorm:"type:uuid;not null;index" json:"element_id"`
	Element   *Element  `gorm:"foreignKey:ElementID" json:"-"`

	Code     string `gorm:"column:code;index" json:"code"`
	Name     string `gorm:"column:name;not null" json:"name"`
	Position int    `gorm:"column:position;not null;default:0" json:"position"`

	Levels []Level `gorm:"foreignKey:SubelementID" json:"levels,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subelement) TableName() string { return "pcmm_subelement" }

// Level is one rung of a node's maturity ladder. Exactly one of ElementID and
// SubelementID is set.
type Level struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ElementID    *uuid.UUID `gorm:"type:uuid;index" json:"element_id,omitempty"`
	SubelementID *uuid.UUID `gorm:"type:uuid;index" json:"subelement_id,omitempty"`

	Code int    `gorm:"column:code;not null" json:"code"`
	Name string `gorm:"column:name;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Level) TableName() string { return "pcmm_level" }

// SortLevels returns a copy of levels ordered by ascending code.
func SortLevels(levels []Level) []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// LevelColor labels an aggregated code independently of the node it came from.
type LevelColor struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code       int       `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	FixedColor string    `gorm:"column:fixed_color" json:"fixed_color,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LevelColor) TableName() string { return "pcmm_level_color" }

// LevelColorCatalog is the global code -> label map.
type LevelColorCatalog map[int]LevelColor

func NewLevelColorCatalog(rows []*LevelColor) LevelColorCatalog {
	out := make(LevelColorCatalog, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out[r.Code] = *r
	}
	return out
}

// Name returns the label registered for code, or "" when none is.
func (c LevelColorCatalog) Name(code int) string {
	if c == nil {
		return ""
	}
	if lc, ok := c[code]; ok {
		return lc.Name
	}
	return ""
}
