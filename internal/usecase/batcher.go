package usecase

import "railwatch-service/internal/domain/entity"

// GroupRoutes partitions due tasks into route groups so one upstream
// fetch serves every task on the same route. Groups come back in
// first-seen order of their key, which keeps a cycle deterministic for a
// given task list.
func GroupRoutes(tasks []*entity.WatchTask) []entity.RouteGroup {
	index := make(map[entity.RouteKey]int, len(tasks))
	var groups []entity.RouteGroup

	for _, task := range tasks {
		key := entity.RouteKeyOf(task)
		if i, ok := index[key]; ok {
			groups[i].Tasks = append(groups[i].Tasks, task)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, entity.RouteGroup{
			Key:   key,
			Tasks: []*entity.WatchTask{task},
		})
	}

	return groups
}
