package booking

import "github.com/google/uuid"

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=2000"`
}

type AnnotateRequest struct {
	Note       string  `json:"note" binding:"required,max=2000"`
	AdminNotes *string `json:"admin_notes" binding:"omitempty,max=2000"`
}

type RescheduleRequest struct {
	Note string `json:"note" binding:"required,max=2000"`
}

type AssignRequest struct {
	CleanerID uuid.UUID `json:"cleaner_id" binding:"required"`
	Note      string    `json:"note" binding:"max=2000"`
}

type ListResponse struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
