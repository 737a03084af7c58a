package store

import (
	"encoding/json"
	"maps"
)

func DefaultSettings() Settings {
	return Settings{
		Timer: TimerSettings{
			FocusDuration:     25,
			BreakDuration:     5,
			LongBreakDuration: 15,
			SessionsPerSet:    4,
			AutoStartBreaks:   true,
			AutoStartFocus:    false,
		},
		Notifications: NotificationSettings{
			Enabled: true,
			Sounds:  true,
			Volume:  50,
			DoNotDisturb: DoNotDisturb{
				Enabled:   false,
				StartTime: "22:00",
				EndTime:   "07:00",
			},
		},
		Appearance: AppearanceSettings{
			Theme:       "royal",
			ShowSeconds: true,
		},
		Data: DataSettings{
			AutoSaveInterval: 60,
		},
		Version: SettingsVersion,
	}
}

// Normalize clamps values that would make the timer or scheduler misbehave.
func (st Settings) Normalize() Settings {
	st.Timer.FocusDuration = max(st.Timer.FocusDuration, 1)
	st.Timer.BreakDuration = max(st.Timer.BreakDuration, 1)
	st.Timer.LongBreakDuration = max(st.Timer.LongBreakDuration, 1)
	st.Timer.SessionsPerSet = max(st.Timer.SessionsPerSet, 1)
	st.Notifications.Volume = min(max(st.Notifications.Volume, 0), 100)
	st.Data.AutoSaveInterval = max(st.Data.AutoSaveInterval, 1)
	if st.Version == "" {
		st.Version = SettingsVersion
	}
	return st
}

// Settings reads the settings record. Fields absent from the stored document
// keep their defaults.
func (s *Store) Settings() Settings {
	st := DefaultSettings()
	s.getJSON(KeySettings, &st)
	return st.Normalize()
}

// SaveSettings deep-merges st over the stored settings and writes the result.
func (s *Store) SaveSettings(st Settings) bool {
	patch, err := toMap(st)
	if err != nil {
		s.log.Warn("encode settings failed", "err", err)
		return false
	}
	return s.UpdateSettings(patch)
}

// UpdateSettings deep-merges a partial settings document, such as
// {"timer": {"focusDuration": 50}}, into the stored settings.
func (s *Store) UpdateSettings(patch map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeSettingsLocked(patch)
}

func (s *Store) mergeSettingsLocked(patch map[string]any) bool {
	current, err := toMap(s.Settings())
	if err != nil {
		s.log.Warn("encode settings failed", "err", err)
		return false
	}
	merged := deepMerge(current, patch)

	data, err := json.Marshal(merged)
	if err != nil {
		s.log.Warn("encode settings failed", "err", err)
		return false
	}
	st := DefaultSettings()
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.Warn("settings patch rejected", "err", err)
		return false
	}
	st = st.Normalize()
	st.Version = SettingsVersion
	return s.putJSON(KeySettings, st)
}

// ResetSettings restores the defaults.
func (s *Store) ResetSettings() bool {
	return s.putJSON(KeySettings, DefaultSettings())
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// deepMerge returns dst overlaid with src. Nested objects merge recursively;
// any other src value replaces the dst value.
func deepMerge(dst, src map[string]any) map[string]any {
	out := maps.Clone(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, sv := range src {
		sm, srcIsMap := sv.(map[string]any)
		dm, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = deepMerge(dm, sm)
			continue
		}
		out[k] = sv
	}
	return out
}
