package models

import "time"

// Ids of the categories every user starts with.
const (
	CategoryPersonal = "personal"
	CategoryWork     = "work"
	CategoryLife     = "life"
)

// MaxCategoriesPerUser caps how many categories a user may own.
const MaxCategoriesPerUser = 10

// Category groups todos. Name is unique per user.
type Category struct {
	Base
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Icon      *string `json:"icon"`
	Order     int     `json:"order"`
	UserID    string  `json:"user_id"`
	IsDefault bool    `json:"is_default"`
}

// NewCategory creates a category owned by userID.
func NewCategory(userID, name, color string, icon *string, order int) *Category {
	return &Category{
		Base:   NewBase(),
		Name:   name,
		Color:  color,
		Icon:   icon,
		Order:  order,
		UserID: userID,
	}
}

// DefaultCategories returns the categories created for a new user.
func DefaultCategories(userID string) []*Category {
	defs := []struct {
		id, name, color string
	}{
		{CategoryPersonal, "Personal", "#3B82F6"},
		{CategoryWork, "Work", "#10B981"},
		{CategoryLife, "Life", "#F97316"},
	}

	out := make([]*Category, 0, len(defs))
	for i, d := range defs {
		c := NewCategory(userID, d.name, d.color, nil, i)
		c.ID = d.id
		c.IsDefault = true
		out = append(out, c)
	}
	return out
}

// AvailableColors lists the predefined category colors.
func AvailableColors() []string {
	return []string{
		"#3B82F6", // blue
		"#EF4444", // red
		"#10B981", // green
		"#F59E0B", // amber
		"#8B5CF6", // purple
		"#06B6D4", // cyan
		"#84CC16", // lime
		"#F97316", // orange
		"#EC4899", // pink
		"#6B7280", // gray
		"#14B8A6", // teal
		"#A855F7", // violet
	}
}

// CategoryCreate is the input for a new category.
type CategoryCreate struct {
	Name  string  `json:"name" validate:"required,min=1,max=50"`
	Color string  `json:"color" validate:"required,hexcolor,len=7"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=50"`
}

// CategoryUpdate holds the category fields a user may change.
type CategoryUpdate struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor,len=7"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=50"`
}

// Apply copies the set fields of up onto c.
func (up CategoryUpdate) Apply(c *Category) {
	if up.Name != nil {
		c.Name = *up.Name
	}
	if up.Color != nil {
		c.Color = *up.Color
	}
	if up.Icon != nil {
		icon := *up.Icon
		c.Icon = &icon
	}
}

// CategorySummary is the category view embedded in todo responses.
type CategorySummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      *string   `json:"icon"`
	Order     int       `json:"order"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the response view of c.
func (c *Category) Summary() *CategorySummary {
	return &CategorySummary{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		Icon:      c.Icon,
		Order:     c.Order,
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt,
	}
}
