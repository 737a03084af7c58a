package store

import (
	"math"
	"time"

	"github.com/google/uuid"
)

func (s *Store) Sessions() []Session {
	sessions := []Session{}
	s.getJSON(KeySessions, &sessions)
	return sessions
}

func (s *Store) SaveSessions(sessions []Session) bool {
	if sessions == nil {
		sessions = []Session{}
	}
	return s.putJSON(KeySessions, sessions)
}

// StartSession appends an active work session linked to taskID (empty for
// none). The returned bool reports whether the session was persisted.
func (s *Store) StartSession(taskID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := Session{
		ID:        uuid.NewString(),
		Type:      SessionWork,
		StartTime: s.now().UTC(),
		Status:    SessionActive,
	}
	if taskID != "" {
		id := taskID
		sess.TaskID = &id
	}

	sessions := append(s.Sessions(), sess)
	return sess, s.SaveSessions(sessions)
}

// PauseSession marks an active session paused at the current time.
func (s *Store) PauseSession(id string) bool {
	return s.updateActive(id, func(sess *Session, now time.Time) {
		if sess.PausedAt == nil {
			sess.PausedAt = &now
		}
	})
}

// ResumeSession moves StartTime forward by the paused interval so the
// session's duration only covers running time.
func (s *Store) ResumeSession(id string) bool {
	return s.updateActive(id, func(sess *Session, now time.Time) {
		sess.resume(now)
	})
}

func (s *Store) updateActive(id string, fn func(*Session, time.Time)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.Sessions()
	for i := range sessions {
		if sessions[i].ID != id || sessions[i].Status != SessionActive {
			continue
		}
		fn(&sessions[i], s.now().UTC())
		return s.SaveSessions(sessions)
	}
	return false
}

func (sess *Session) resume(now time.Time) {
	if sess.PausedAt == nil {
		return
	}
	if d := now.Sub(*sess.PausedAt); d > 0 {
		sess.StartTime = sess.StartTime.Add(d)
	}
	sess.PausedAt = nil
}

// CompleteSession finalizes an active session. Its duration is the running
// time since StartTime rounded to whole minutes; a paused session stops
// counting at the pause.
func (s *Store) CompleteSession(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.Sessions()
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		if sessions[i].Status == SessionCompleted {
			return sessions[i], false
		}
		end := s.now().UTC()
		sessions[i].resume(end)
		sessions[i].EndTime = &end
		sessions[i].Duration = elapsedMinutes(sessions[i].StartTime, end)
		sessions[i].Status = SessionCompleted
		if !s.SaveSessions(sessions) {
			return Session{}, false
		}
		return sessions[i], true
	}
	return Session{}, false
}

// DiscardSession removes a session that never completed.
func (s *Store) DiscardSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.Sessions()
	kept := sessions[:0]
	found := false
	for _, sess := range sessions {
		if sess.ID == id && sess.Status == SessionActive {
			found = true
			continue
		}
		kept = append(kept, sess)
	}
	if !found {
		return false
	}
	return s.SaveSessions(kept)
}

// ActiveSession returns the most recent session still marked active.
func (s *Store) ActiveSession() (Session, bool) {
	sessions := s.Sessions()
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].Status == SessionActive {
			return sessions[i], true
		}
	}
	return Session{}, false
}

// SessionsBetween returns completed work sessions that started in [from, to).
func (s *Store) SessionsBetween(from, to time.Time) []Session {
	var out []Session
	for _, sess := range s.Sessions() {
		if sess.Type != SessionWork || sess.Status != SessionCompleted {
			continue
		}
		if sess.StartTime.Before(from) || !sess.StartTime.Before(to) {
			continue
		}
		out = append(out, sess)
	}
	return out
}

func elapsedMinutes(start, end time.Time) int {
	m := end.Sub(start).Minutes()
	if m < 0 {
		return 0
	}
	return int(math.Floor(m + 0.5))
}
