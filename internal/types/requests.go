package types

import "github.com/go-playground/validator/v10"

// CreateMeetingRequest is submitted by a candidate to request an interview.
type CreateMeetingRequest struct {
	Field string `json:"field" validate:"required"`
	Level string `json:"level" validate:"required"`
	Topic string `json:"topic,omitempty"`
}

// TransitionRequest asks the lifecycle state machine to move a request to a
// new status. FinalScore and Report are required only for the completed
// target and are otherwise ignored.
type TransitionRequest struct {
	Target     string `json:"target" validate:"required,oneof=pending reviewing approved completed canceled"`
	FinalScore *int   `json:"final_score,omitempty" validate:"omitempty,min=0,max=100"`
	Report     string `json:"report,omitempty"`
}

// SetScoreRequest updates a single rubric item score in an assessment session.
type SetScoreRequest struct {
	Section int `json:"section" validate:"min=0"`
	Item    int `json:"item" validate:"min=0"`
	Score   int `json:"score" validate:"required"`
}

// SetNoteRequest updates a single rubric item note in an assessment session.
type SetNoteRequest struct {
	Section int    `json:"section" validate:"min=0"`
	Item    int    `json:"item" validate:"min=0"`
	Note    string `json:"note"`
}

// SuggestNoteRequest asks the AI gateway to draft a note for one item.
type SuggestNoteRequest struct {
	Section int `json:"section" validate:"min=0"`
	Item    int `json:"item" validate:"min=0"`
}

// EditReportRequest overwrites the draft report text of a session in review.
type EditReportRequest struct {
	Text string `json:"text" validate:"required"`
}

// Validate validates the CreateMeetingRequest using the validator.
func (r *CreateMeetingRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TransitionRequest using the validator.
func (r *TransitionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SetScoreRequest using the validator.
func (r *SetScoreRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SetNoteRequest using the validator.
func (r *SetNoteRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SuggestNoteRequest using the validator.
func (r *SuggestNoteRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the EditReportRequest using the validator.
func (r *EditReportRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
