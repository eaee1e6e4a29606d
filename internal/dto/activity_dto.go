package dto

import "github.com/noah-isme/mergington-activities/internal/models"

// ActivityMap is the public listing keyed by activity name.
type ActivityMap map[string]models.Activity

// RosterRequest captures the inputs of a signup or unregister call.
type RosterRequest struct {
	Activity string `validate:"required"`
	Email    string `validate:"required"`
}

// MessageResponse is returned by successful roster mutations.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewActivityMap copies the given activities into a listing, normalising nil rosters to empty lists.
func NewActivityMap(activities map[string]models.Activity) ActivityMap {
	result := make(ActivityMap, len(activities))
	for name, activity := range activities {
		item := activity.Clone()
		if item.Participants == nil {
			item.Participants = []string{}
		}
		result[name] = item
	}
	return result
}
