package routing

import "github.com/promptline/smsrouter/internal/models"

// validTransitions is the forward-only task state machine. Rejected never
// appears: it is terminal and assigned only at creation time.
var validTransitions = map[models.TaskState][]models.TaskState{
	models.TaskStateAdmitted:   {models.TaskStateProcessing},
	models.TaskStateProcessing: {models.TaskStateCompleted, models.TaskStateFailed},
}

// canTransition reports whether from -> to is a legal forward move.
func canTransition(from, to models.TaskState) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transition applies a state change, rejecting backward or terminal moves.
func transition(task *models.Task, to models.TaskState) error {
	if task == nil {
		return ErrInvalidTransition
	}
	if !canTransition(task.State, to) {
		return ErrInvalidTransition
	}
	task.State = to
	return nil
}
