package stores

import (
	"encoding/json"
	"sync"
)

type Theme struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

type Layout struct {
	SidebarWidth    int `json:"sidebar_width"`
	ContentMaxWidth int `json:"content_max_width"`
	Spacing         int `json:"spacing"`
}

type NotificationSettings struct {
	Enabled bool `json:"enabled"`
	Sound   bool `json:"sound"`
	Desktop bool `json:"desktop"`
}

type Preferences struct {
	AutoSave    bool `json:"auto_save"`
	ShowTips    bool `json:"show_tips"`
	CompactMode bool `json:"compact_mode"`
}

type Settings struct {
	Theme         Theme                `json:"theme"`
	Layout        Layout               `json:"layout"`
	CustomTexts   map[string]string    `json:"custom_texts"`
	Notifications NotificationSettings `json:"notifications"`
	Preferences   Preferences          `json:"preferences"`
}

// Partial updates. Nil fields keep their current value.
type (
	ThemePatch struct {
		Primary    *string `json:"primary"`
		Secondary  *string `json:"secondary"`
		Background *string `json:"background"`
		Text       *string `json:"text"`
		Accent     *string `json:"accent"`
	}
	LayoutPatch struct {
		SidebarWidth    *int `json:"sidebar_width"`
		ContentMaxWidth *int `json:"content_max_width"`
		Spacing         *int `json:"spacing"`
	}
	NotificationSettingsPatch struct {
		Enabled *bool `json:"enabled"`
		Sound   *bool `json:"sound"`
		Desktop *bool `json:"desktop"`
	}
	PreferencesPatch struct {
		AutoSave    *bool `json:"auto_save"`
		ShowTips    *bool `json:"show_tips"`
		CompactMode *bool `json:"compact_mode"`
	}
)

func DefaultSettings() Settings {
	return Settings{
		Theme: Theme{
			Primary:    "#39e079",
			Secondary:  "#f0f2f5",
			Background: "#ffffff",
			Text:       "#111418",
			Accent:     "#0c7ff2",
		},
		Layout:        Layout{SidebarWidth: 256, ContentMaxWidth: 1280, Spacing: 16},
		CustomTexts:   map[string]string{},
		Notifications: NotificationSettings{Enabled: true, Sound: true, Desktop: true},
		Preferences:   Preferences{AutoSave: true, ShowTips: true},
	}
}

type SettingsStore struct {
	observable

	mu       sync.RWMutex
	settings Settings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: DefaultSettings()}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (s *SettingsStore) UpdateTheme(p ThemePatch) {
	s.mutate("theme", func(st *Settings) {
		setIf(&st.Theme.Primary, p.Primary)
		setIf(&st.Theme.Secondary, p.Secondary)
		setIf(&st.Theme.Background, p.Background)
		setIf(&st.Theme.Text, p.Text)
		setIf(&st.Theme.Accent, p.Accent)
	})
}

func (s *SettingsStore) UpdateLayout(p LayoutPatch) {
	s.mutate("layout", func(st *Settings) {
		setIf(&st.Layout.SidebarWidth, p.SidebarWidth)
		setIf(&st.Layout.ContentMaxWidth, p.ContentMaxWidth)
		setIf(&st.Layout.Spacing, p.Spacing)
	})
}

func (s *SettingsStore) UpdateCustomText(key, value string) {
	s.mutate("custom_text", func(st *Settings) {
		if st.CustomTexts == nil {
			st.CustomTexts = map[string]string{}
		}
		st.CustomTexts[key] = value
	})
}

func (s *SettingsStore) UpdateNotifications(p NotificationSettingsPatch) {
	s.mutate("notifications", func(st *Settings) {
		setIf(&st.Notifications.Enabled, p.Enabled)
		setIf(&st.Notifications.Sound, p.Sound)
		setIf(&st.Notifications.Desktop, p.Desktop)
	})
}

func (s *SettingsStore) UpdatePreferences(p PreferencesPatch) {
	s.mutate("preferences", func(st *Settings) {
		setIf(&st.Preferences.AutoSave, p.AutoSave)
		setIf(&st.Preferences.ShowTips, p.ShowTips)
		setIf(&st.Preferences.CompactMode, p.CompactMode)
	})
}

func (s *SettingsStore) ResetToDefault() {
	s.mutate("reset", func(st *Settings) { *st = DefaultSettings() })
}

func (s *SettingsStore) mutate(action string, fn func(*Settings)) {
	s.mu.Lock()
	fn(&s.settings)
	s.mu.Unlock()
	s.emit("settings", action, "")
}

func (s *SettingsStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.settings
	st.CustomTexts = make(map[string]string, len(s.settings.CustomTexts))
	for k, v := range s.settings.CustomTexts {
		st.CustomTexts[k] = v
	}
	return st
}

func (s *SettingsStore) snapshotKey() string  { return "onboard-buddy-settings" }
func (s *SettingsStore) snapshotVersion() int { return 1 }

func (s *SettingsStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.settings)
}

// restore resets version 0 settings to the defaults.
func (s *SettingsStore) restore(data []byte, version int) error {
	st := DefaultSettings()
	if version > 0 {
		if err := decodeSnapshot(data, &st); err != nil {
			return err
		}
	}
	if st.CustomTexts == nil {
		st.CustomTexts = map[string]string{}
	}
	s.mu.Lock()
	s.settings = st
	s.mu.Unlock()
	return nil
}
