package profile

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Registry owns the per-user profile and assessment state. Profiles are
// keyed by user, shared across sessions, and their read-modify-write is
// serialized per user: smoothing updates are not commutative, so two
// concurrent turns for the same user must not interleave.
//
// The per-user lock is held only for the update closure, never across
// collaborator I/O.
type Registry struct {
	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	profiles    map[string]*PersonalityProfile
	assessments map[string]*TherapeuticAssessment
	logger      *zap.Logger
}

// NewRegistry creates an empty profile registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		locks:       make(map[string]*sync.Mutex),
		profiles:    make(map[string]*PersonalityProfile),
		assessments: make(map[string]*TherapeuticAssessment),
		logger:      logger,
	}
}

func (r *Registry) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

// Update applies fn to the user's profile and assessment under the per-user
// lock. If ctx is already cancelled the update is discarded: a caller that
// abandoned its turn must not commit results into shared state.
func (r *Registry) Update(ctx context.Context, userID string, fn func(p *PersonalityProfile, a *TherapeuticAssessment)) error {
	l := r.userLock(userID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		r.logger.Debug("profile update skipped, turn abandoned",
			zap.String("user", userID))
		return err
	}

	r.mu.Lock()
	p, ok := r.profiles[userID]
	if !ok {
		p = NewPersonalityProfile()
		r.profiles[userID] = p
	}
	a, ok := r.assessments[userID]
	if !ok {
		a = NewTherapeuticAssessment()
		r.assessments[userID] = a
	}
	r.mu.Unlock()

	fn(p, a)
	return nil
}

// Snapshot returns deep copies of the user's profile and assessment,
// creating neutral defaults for first-seen users.
func (r *Registry) Snapshot(userID string) (*PersonalityProfile, *TherapeuticAssessment) {
	l := r.userLock(userID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return NewPersonalityProfile(), NewTherapeuticAssessment()
	}
	return p.Clone(), r.assessments[userID].Clone()
}

// Tracks reports whether the registry holds in-memory state for the user.
func (r *Registry) Tracks(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.profiles[userID]
	return ok
}

// Restore installs previously persisted state for a user, replacing any
// in-memory copy. Used when rehydrating profiles from external storage.
func (r *Registry) Restore(userID string, p *PersonalityProfile, a *TherapeuticAssessment) {
	l := r.userLock(userID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[userID] = p
	r.assessments[userID] = a
}
