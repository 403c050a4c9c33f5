package entity

// RouteKey identifies the query a group of tasks shares. Tasks with equal
// keys are served by one upstream fetch (two for transfer routes).
type RouteKey struct {
	From string
	To   string
	Date string
	Via  string // empty for direct routes
}

// RouteKeyOf derives the grouping key for a task
func RouteKeyOf(t *WatchTask) RouteKey {
	return RouteKey{
		From: t.FromStation,
		To:   t.ToStation,
		Date: t.TravelDate,
		Via:  t.ViaStation,
	}
}

// RouteGroup is one batch of tasks sharing a RouteKey
type RouteGroup struct {
	Key   RouteKey
	Tasks []*WatchTask
}
