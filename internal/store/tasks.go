package store

// Tasks returns the stored task list, newest first as written by the tracker.
func (s *Store) Tasks() []Task {
	tasks := []Task{}
	s.getJSON(KeyTasks, &tasks)
	for i := range tasks {
		if tasks[i].Tags == nil {
			tasks[i].Tags = []string{}
		}
	}
	return tasks
}

// SaveTasks replaces the whole task list.
func (s *Store) SaveTasks(tasks []Task) bool {
	if tasks == nil {
		tasks = []Task{}
	}
	return s.putJSON(KeyTasks, tasks)
}

// Task looks up a single task by id.
func (s *Store) Task(id string) (Task, bool) {
	for _, t := range s.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
