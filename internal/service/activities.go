package service

import (
	"context"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// DefaultActivityLimit bounds feed listings when the caller does not
// specify one.
const DefaultActivityLimit = 50

// Activities implements the project activity feed.
type Activities struct {
	st store.Store
}

// NewActivities creates the activity service.
func NewActivities(st store.Store) *Activities {
	return &Activities{st: st}
}

// ListByProject returns the project feed, newest first. The caller must
// be a member.
func (s *Activities) ListByProject(ctx context.Context, userID, projectID string, limit int) ([]*ActivityView, error) {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsMember(p, userID) {
		return nil, ErrAccessDenied
	}

	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	activities, err := s.st.ListActivitiesByProject(ctx, projectID, limit)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, a := range activities {
		ids = append(ids, a.UserID)
	}
	refs, err := userRefs(ctx, s.st, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*ActivityView, 0, len(activities))
	for _, a := range activities {
		out = append(out, activityView(a, refs))
	}
	return out, nil
}
