package model

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryDesign   Category = "design"
	CategorySafety   Category = "safety"
	CategorySpec     Category = "spec"
	CategoryCost     Category = "cost"
	CategorySchedule Category = "schedule"
	CategoryOther    Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneral, CategoryDesign, CategorySafety, CategorySpec, CategoryCost, CategorySchedule, CategoryOther:
		return true
	}
	return false
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Position struct {
	PageNumber      int    `json:"page_number"`
	BoundingBox     Rect   `json:"bounding_box"`
	Rects           []Rect `json:"rects,omitempty"`
	CoordinateSpace string `json:"coordinate_space,omitempty"`
}

type HighlightContent struct {
	Text     string `json:"text,omitempty"`
	ImageRef string `json:"image_ref,omitempty"`
}

type Comment struct {
	Text string `json:"text"`
}

type Reply struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	AuthorID string `json:"author_id,omitempty"`
	Ctime    int64  `json:"ctime"`
}

type Highlight struct {
	ID       string           `json:"id"`
	Position Position         `json:"position"`
	Content  HighlightContent `json:"content"`
	Comment  Comment          `json:"comment"`
	Severity Severity         `json:"severity"`
	Category Category         `json:"category"`
	// Replies are kept newest first.
	Replies []Reply `json:"replies,omitempty"`
}
