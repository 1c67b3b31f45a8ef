package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Phase tracks where an editing session sits in its lifecycle.
type Phase int

// Session phases. Idle means draft and committed agree, Editing means the
// draft has diverged, Committing means a persistence call is in flight.
const (
	PhaseIdle Phase = iota
	PhaseEditing
	PhaseCommitting
)

// ErrCommitInFlight is returned when a commit is requested while another is
// still outstanding for the same session.
var ErrCommitInFlight = errors.New("viewstate: commit already in flight")

// ValidationError reports drafted values that failed the session's local
// constraint. A session with outstanding validation failures refuses to
// commit entirely; no partial diff is submitted.
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("viewstate: %d invalid drafted value(s): %v", len(keys), keys)
}

// Session owns the draft map for one editing surface. It is owned by a single
// view instance and is not safe for concurrent use; there is no concurrent
// writer in the intended single-owner model.
//
// Re-seeding is keyed on the selection key alone: syncing with the same
// selection refreshes the committed collection without discarding pending
// edits, while a selection change rebuilds the draft from scratch. Tying
// re-seeds to collection identity instead is how unsaved edits leak across
// context switches.
type Session[R any, V comparable] struct {
	key       func(R) string
	value     func(R) V
	fallback  V
	validate  func(key string, value V) error
	selection string
	universe  []string
	baseline  map[string]V
	draft     map[string]V
	edited    map[string]struct{}
	invalid   map[string]error
	phase     Phase
}

// NewSession constructs an empty session. The session stays empty until the
// first Sync seeds it.
func NewSession[R any, V comparable](key func(R) string, value func(R) V, fallback V) *Session[R, V] {
	return &Session[R, V]{
		key:      key,
		value:    value,
		fallback: fallback,
		baseline: map[string]V{},
		draft:    map[string]V{},
		edited:   map[string]struct{}{},
		invalid:  map[string]error{},
	}
}

// SetValidator installs a local constraint checked on every Set.
func (s *Session[R, V]) SetValidator(fn func(key string, value V) error) {
	s.validate = fn
}

// Sync points the session at a selection context and its committed records.
// A changed selection key discards pending edits and reseeds the draft over
// the universe. The same selection key refreshes the committed baseline and
// reseeds every entry the user has not touched, so un-edited rows track what
// is actually persisted; only explicitly edited keys keep their drafted value.
func (s *Session[R, V]) Sync(selection string, records []R, universe []string) {
	s.universe = append([]string(nil), universe...)
	s.baseline = Seed(records, universe, s.key, s.value, s.fallback)
	if selection == s.selection && s.phase != PhaseIdle {
		draft := Seed(records, universe, s.key, s.value, s.fallback)
		for k := range s.edited {
			if _, ok := draft[k]; !ok {
				// Key left the universe; its pending edit has nothing to
				// apply to anymore.
				delete(s.edited, k)
				delete(s.invalid, k)
				continue
			}
			draft[k] = s.draft[k]
		}
		s.draft = draft
		return
	}
	s.selection = selection
	s.draft = Seed(records, universe, s.key, s.value, s.fallback)
	s.edited = map[string]struct{}{}
	s.invalid = map[string]error{}
	s.phase = PhaseIdle
}

// Set records a pending edit, returning a validation error when the value
// fails the installed constraint. Invalid values are remembered so Commit can
// refuse until they are corrected.
func (s *Session[R, V]) Set(key string, value V) error {
	if s.phase == PhaseCommitting {
		return ErrCommitInFlight
	}
	if s.validate != nil {
		if err := s.validate(key, value); err != nil {
			s.invalid[key] = err
			return err
		}
	}
	delete(s.invalid, key)
	s.draft = Set(s.draft, key, value)
	s.edited[key] = struct{}{}
	s.phase = PhaseEditing
	return nil
}

// Draft returns a copy of the current draft map.
func (s *Session[R, V]) Draft() map[string]V {
	out := make(map[string]V, len(s.draft))
	for k, v := range s.draft {
		out[k] = v
	}
	return out
}

// Get returns the drafted value for key, falling back to the session fallback
// for unknown keys.
func (s *Session[R, V]) Get(key string) V {
	if v, ok := s.draft[key]; ok {
		return v
	}
	return s.fallback
}

// Phase reports the session lifecycle phase.
func (s *Session[R, V]) Phase() Phase {
	return s.phase
}

// Selection reports the active selection key.
func (s *Session[R, V]) Selection() string {
	return s.selection
}

// PendingDiff computes the current change set without committing it: every
// drafted value that differs from the committed baseline. Keys without a
// baseline entry count as fallback.
func (s *Session[R, V]) PendingDiff() map[string]V {
	diff := make(map[string]V)
	for k, drafted := range s.draft {
		base, ok := s.baseline[k]
		if !ok {
			base = s.fallback
		}
		if drafted != base {
			diff[k] = drafted
		}
	}
	return diff
}

// Commit reconciles the draft against the committed baseline and hands the
// full diff to persist in a single call. An empty diff skips persistence and
// returns the session to Idle. On failure the draft map is retained unchanged,
// the session returns to Editing, and the error is returned verbatim for the
// caller to surface; retry is always explicit. On success the submitted diff
// is folded into the baseline, so a repeat Commit without new edits submits
// nothing.
func (s *Session[R, V]) Commit(ctx context.Context, persist func(context.Context, map[string]V) error) (map[string]V, error) {
	if s.phase == PhaseCommitting {
		return nil, ErrCommitInFlight
	}
	if len(s.invalid) > 0 {
		fields := make(map[string]error, len(s.invalid))
		for k, err := range s.invalid {
			fields[k] = err
		}
		return nil, &ValidationError{Fields: fields}
	}
	diff := s.PendingDiff()
	if len(diff) == 0 {
		s.phase = PhaseIdle
		return map[string]V{}, nil
	}
	s.phase = PhaseCommitting
	if err := persist(ctx, diff); err != nil {
		s.phase = PhaseEditing
		return nil, err
	}
	for k, v := range diff {
		s.baseline[k] = v
	}
	s.edited = map[string]struct{}{}
	s.phase = PhaseIdle
	return diff, nil
}
