package core

import "github.com/valter-silva-au/taskcard/pkg/models"

// FallbackMessage is the error message of the snapshot served when the slot
// is empty or holds something that is not a valid snapshot.
const FallbackMessage = "Did not get state from session storage."

// Initialize returns the snapshot the application starts in.
func Initialize() models.Snapshot {
	return models.Flatten(models.Start{})
}

// Fetching returns the snapshot for a task request in flight.
func Fetching() models.Snapshot {
	return models.Flatten(models.Fetching{})
}

// GotTask returns the snapshot holding a freshly fetched task.
func GotTask(task models.Task) models.Snapshot {
	return models.Flatten(models.GotTask{Task: task})
}

// Failed returns the error snapshot carrying message.
func Failed(message string) models.Snapshot {
	return models.Flatten(models.Failed{Message: message})
}

// Same reports whether two snapshots are equivalent. Only the task id and
// updated_at timestamp are compared, not every task field.
func Same(a, b models.Snapshot) bool {
	return a.Success == b.Success &&
		a.AppState == b.AppState &&
		a.ErrorMessage == b.ErrorMessage &&
		a.CurrentTask.ID == b.CurrentTask.ID &&
		a.CurrentTask.UpdatedAt == b.CurrentTask.UpdatedAt
}
