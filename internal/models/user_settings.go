package models

import "time"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type DateFormat string

const (
	DateFormatISO DateFormat = "YYYY-MM-DD"
	DateFormatUS  DateFormat = "MM/DD/YYYY"
	DateFormatEU  DateFormat = "DD/MM/YYYY"
)

type TimeFormat string

const (
	TimeFormat12h TimeFormat = "12h"
	TimeFormat24h TimeFormat = "24h"
)

type WeekStart string

const (
	WeekStartSunday   WeekStart = "sunday"
	WeekStartMonday   WeekStart = "monday"
	WeekStartSaturday WeekStart = "saturday"
)

type CalendarView string

const (
	ViewMonth CalendarView = "month"
	ViewWeek  CalendarView = "week"
	ViewDay   CalendarView = "day"
)

type CompletedTodoDisplay string

const (
	CompletedDisplayAll       CompletedTodoDisplay = "all"
	CompletedDisplayYesterday CompletedTodoDisplay = "yesterday"
	CompletedDisplayNone      CompletedTodoDisplay = "none"
)

type BackupInterval string

const (
	BackupDaily   BackupInterval = "daily"
	BackupWeekly  BackupInterval = "weekly"
	BackupMonthly BackupInterval = "monthly"
)

// NotificationSettings toggles reminders.
type NotificationSettings struct {
	Enabled       bool `json:"enabled"`
	DailyReminder bool `json:"daily_reminder"`
	WeeklyReport  bool `json:"weekly_report"`
}

// SaturationLevel fades todos older than Days to Opacity.
type SaturationLevel struct {
	Days    int     `json:"days" validate:"min=1"`
	Opacity float64 `json:"opacity" validate:"min=0,max=1"`
}

// SaturationAdjustment configures fading of old todos.
type SaturationAdjustment struct {
	Enabled bool              `json:"enabled"`
	Levels  []SaturationLevel `json:"levels" validate:"dive"`
}

// UserSettings holds one user's preferences. There is exactly one per user.
type UserSettings struct {
	UserID string `json:"user_id"`

	CategoryFilter map[string]bool `json:"category_filter"`

	Theme       Theme        `json:"theme" validate:"oneof=light dark system"`
	Language    string       `json:"language" validate:"oneof=ko en"`
	ThemeColor  string       `json:"theme_color" validate:"hexcolor,len=7"`
	CustomColor string       `json:"custom_color" validate:"hexcolor,len=7"`
	DefaultView CalendarView `json:"default_view" validate:"oneof=month week day"`

	DateFormat DateFormat `json:"date_format" validate:"oneof=YYYY-MM-DD MM/DD/YYYY DD/MM/YYYY"`
	TimeFormat TimeFormat `json:"time_format" validate:"oneof=12h 24h"`
	Timezone   string     `json:"timezone" validate:"required"`
	WeekStart  WeekStart  `json:"week_start" validate:"oneof=sunday monday saturday"`

	AutoMoveTodos             bool                 `json:"auto_move_todos"`
	ShowTaskMoveNotifications bool                 `json:"show_task_move_notifications"`
	CompletedTodoDisplay      CompletedTodoDisplay `json:"completed_todo_display" validate:"oneof=all yesterday none"`
	OldTodoDisplayLimit       int                  `json:"old_todo_display_limit" validate:"min=1,max=365"`
	SaturationAdjustment      SaturationAdjustment `json:"saturation_adjustment"`

	ShowWeekends   bool                 `json:"show_weekends"`
	Notifications  NotificationSettings `json:"notifications"`
	AutoBackup     bool                 `json:"auto_backup"`
	BackupInterval BackupInterval       `json:"backup_interval" validate:"oneof=daily weekly monthly"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultUserSettings returns the settings a new user starts with.
func DefaultUserSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:                    userID,
		CategoryFilter:            map[string]bool{},
		Theme:                     ThemeLight,
		Language:                  "ko",
		ThemeColor:                "#3B82F6",
		CustomColor:               "#3B82F6",
		DefaultView:               ViewMonth,
		DateFormat:                DateFormatISO,
		TimeFormat:                TimeFormat24h,
		Timezone:                  "Asia/Seoul",
		WeekStart:                 WeekStartSunday,
		AutoMoveTodos:             true,
		ShowTaskMoveNotifications: true,
		CompletedTodoDisplay:      CompletedDisplayYesterday,
		OldTodoDisplayLimit:       14,
		SaturationAdjustment: SaturationAdjustment{
			Enabled: true,
			Levels:  []SaturationLevel{},
		},
		ShowWeekends:   true,
		Notifications:  NotificationSettings{Enabled: true},
		BackupInterval: BackupWeekly,
		UpdatedAt:      Now(),
	}
}

// SettingsUpdate holds the settings fields a user may change.
type SettingsUpdate struct {
	CategoryFilter map[string]bool `json:"category_filter,omitempty"`

	Theme       *Theme        `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	Language    *string       `json:"language,omitempty" validate:"omitempty,oneof=ko en"`
	ThemeColor  *string       `json:"theme_color,omitempty" validate:"omitempty,hexcolor,len=7"`
	CustomColor *string       `json:"custom_color,omitempty" validate:"omitempty,hexcolor,len=7"`
	DefaultView *CalendarView `json:"default_view,omitempty" validate:"omitempty,oneof=month week day"`

	DateFormat *DateFormat `json:"date_format,omitempty" validate:"omitempty,oneof=YYYY-MM-DD MM/DD/YYYY DD/MM/YYYY"`
	TimeFormat *TimeFormat `json:"time_format,omitempty" validate:"omitempty,oneof=12h 24h"`
	Timezone   *string     `json:"timezone,omitempty" validate:"omitempty,min=1"`
	WeekStart  *WeekStart  `json:"week_start,omitempty" validate:"omitempty,oneof=sunday monday saturday"`

	AutoMoveTodos             *bool                 `json:"auto_move_todos,omitempty"`
	ShowTaskMoveNotifications *bool                 `json:"show_task_move_notifications,omitempty"`
	CompletedTodoDisplay      *CompletedTodoDisplay `json:"completed_todo_display,omitempty" validate:"omitempty,oneof=all yesterday none"`
	OldTodoDisplayLimit       *int                  `json:"old_todo_display_limit,omitempty" validate:"omitempty,min=1,max=365"`
	SaturationAdjustment      *SaturationAdjustment `json:"saturation_adjustment,omitempty"`

	ShowWeekends   *bool                 `json:"show_weekends,omitempty"`
	Notifications  *NotificationSettings `json:"notifications,omitempty"`
	AutoBackup     *bool                 `json:"auto_backup,omitempty"`
	BackupInterval *BackupInterval       `json:"backup_interval,omitempty" validate:"omitempty,oneof=daily weekly monthly"`
}

// Apply copies the set fields of up onto s.
func (up SettingsUpdate) Apply(s *UserSettings) {
	if up.CategoryFilter != nil {
		s.CategoryFilter = make(map[string]bool, len(up.CategoryFilter))
		for k, v := range up.CategoryFilter {
			s.CategoryFilter[k] = v
		}
	}
	setIf(&s.Theme, up.Theme)
	setIf(&s.Language, up.Language)
	setIf(&s.ThemeColor, up.ThemeColor)
	setIf(&s.CustomColor, up.CustomColor)
	setIf(&s.DefaultView, up.DefaultView)
	setIf(&s.DateFormat, up.DateFormat)
	setIf(&s.TimeFormat, up.TimeFormat)
	setIf(&s.Timezone, up.Timezone)
	setIf(&s.WeekStart, up.WeekStart)
	setIf(&s.AutoMoveTodos, up.AutoMoveTodos)
	setIf(&s.ShowTaskMoveNotifications, up.ShowTaskMoveNotifications)
	setIf(&s.CompletedTodoDisplay, up.CompletedTodoDisplay)
	setIf(&s.OldTodoDisplayLimit, up.OldTodoDisplayLimit)
	setIf(&s.SaturationAdjustment, up.SaturationAdjustment)
	setIf(&s.ShowWeekends, up.ShowWeekends)
	setIf(&s.Notifications, up.Notifications)
	setIf(&s.AutoBackup, up.AutoBackup)
	setIf(&s.BackupInterval, up.BackupInterval)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
