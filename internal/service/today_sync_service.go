package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/repository"
)

// TodayMarker names the refresh marker of the today-set job.
const TodayMarker = "refresh-today"

// SyncResult reports what a today-set run changed.
type SyncResult struct {
	Day     calendar.Date
	Cleared int
	Set     int
	Skipped bool
}

// TodaySyncService rebuilds the "today" flags from due dates once per day.
type TodaySyncService struct {
	store Store
	loc   *time.Location
	log   zerolog.Logger
	now   func() time.Time
}

func NewTodaySyncService(store Store, loc *time.Location, log zerolog.Logger) *TodaySyncService {
	if loc == nil {
		loc = time.Local
	}
	return &TodaySyncService{
		store: store,
		loc:   loc,
		log:   log.With().Str("component", "today-sync").Logger(),
		now:   time.Now,
	}
}

// Run clears every today flag, then flags every task due today, and records
// the day. Unless force is set, a second run on the same day does nothing.
// The whole run is one transaction: a failed update leaves flags and the
// marker as they were.
func (s *TodaySyncService) Run(ctx context.Context, force bool) (SyncResult, error) {
	today := calendar.DateOf(s.now().In(s.loc))
	res := SyncResult{Day: today}

	err := s.store.Atomic(ctx, func(st Store) error {
		if !force {
			last, ok, err := st.LastRefresh(ctx, TodayMarker)
			if err != nil {
				return err
			}
			if ok && last == today {
				res.Skipped = true
				return nil
			}
		}

		flagged, err := st.ListTasks(ctx, repository.FilterToday)
		if err != nil {
			return err
		}
		for _, task := range flagged {
			if _, err := st.UpdateTask(ctx, task.ID, model.TaskPatch{IsToday: model.Ptr(false)}); err != nil {
				return fmt.Errorf("clear today flag of %s: %w", task.ID, err)
			}
			res.Cleared++
		}

		all, err := st.ListTasks(ctx, repository.FilterAll)
		if err != nil {
			return err
		}
		for _, task := range all {
			if task.DueDate == nil || !today.Contains(task.DueDate.In(s.loc)) {
				continue
			}
			if _, err := st.UpdateTask(ctx, task.ID, model.TaskPatch{IsToday: model.Ptr(true)}); err != nil {
				return fmt.Errorf("set today flag of %s: %w", task.ID, err)
			}
			res.Set++
		}

		return st.UpsertLastRefresh(ctx, TodayMarker, today)
	})
	if err != nil {
		s.log.Error().Err(err).Str("day", today.String()).Bool("force", force).Msg("today refresh failed")
		return SyncResult{Day: today}, err
	}

	if res.Skipped {
		s.log.Debug().Str("day", today.String()).Msg("today set already refreshed")
		return res, nil
	}
	s.log.Info().
		Str("day", today.String()).
		Bool("force", force).
		Int("cleared", res.Cleared).
		Int("set", res.Set).
		Msg("refreshed today set")
	return res, nil
}
