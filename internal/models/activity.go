package models

// Activity is an extracurricular offering together with its participant roster.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Clone returns a copy that shares no memory with the receiver.
func (a Activity) Clone() Activity {
	participants := make([]string, len(a.Participants))
	copy(participants, a.Participants)
	a.Participants = participants
	return a
}

// HasParticipant reports whether email is already on the roster.
func (a Activity) HasParticipant(email string) bool {
	return a.participantIndex(email) >= 0
}

// SpotsLeft returns the number of places left before the advertised cap.
// The value can go negative because the cap is informational only.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

func (a Activity) participantIndex(email string) int {
	for i, participant := range a.Participants {
		if participant == email {
			return i
		}
	}
	return -1
}

// AddParticipant appends email to the roster. It returns false when the email is already present.
func (a *Activity) AddParticipant(email string) bool {
	if a.HasParticipant(email) {
		return false
	}
	a.Participants = append(a.Participants, email)
	return true
}

// RemoveParticipant drops email from the roster keeping the order of the rest.
// It returns false when the email is not registered.
func (a *Activity) RemoveParticipant(email string) bool {
	idx := a.participantIndex(email)
	if idx < 0 {
		return false
	}
	participants := make([]string, 0, len(a.Participants)-1)
	participants = append(participants, a.Participants[:idx]...)
	participants = append(participants, a.Participants[idx+1:]...)
	a.Participants = participants
	return true
}
