package app

import "time"

// SetClock replaces the wall clock used for manual timestamps.
func SetClock(s *PipelineService, now func() time.Time) { s.now = now }
