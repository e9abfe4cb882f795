package orchestrator

import (
	"context"

	"github.com/local/jarvis/internal/store"
)

type redisStatusAdapter struct{ s *store.RedisStatus }

func NewStatusAdapter(s *store.RedisStatus) StatusStore { return &redisStatusAdapter{s: s} }

func (a *redisStatusAdapter) Set(ctx context.Context, requestID string, st Status) error {
	return a.s.Set(ctx, requestID, store.Status{
		State:     st.State,
		Mode:      st.Mode,
		Message:   st.Message,
		Provider:  st.Provider,
		ReportURL: st.ReportURL,
		Start:     st.Start,
		End:       st.End,
	})
}

func (a *redisStatusAdapter) Get(ctx context.Context, requestID string) (Status, bool, error) {
	st, ok, err := a.s.Get(ctx, requestID)
	if !ok || err != nil {
		return Status{}, ok, err
	}
	return Status{
		State:     st.State,
		Mode:      st.Mode,
		Message:   st.Message,
		Provider:  st.Provider,
		ReportURL: st.ReportURL,
		Start:     st.Start,
		End:       st.End,
	}, true, nil
}
