package dto

// CreateStudentRequest is the body of POST /students.
type CreateStudentRequest struct {
	StudentNumber int    `json:"studentNumber" validate:"required,min=1"`
	Name          string `json:"name" validate:"required,max=100"`
	ClassName     string `json:"className" validate:"max=50"`
	Grade         int    `json:"grade" validate:"required,oneof=1 2"`
}

// UpdateStudentRequest is the body of PATCH /students/:id.
type UpdateStudentRequest struct {
	StudentNumber *int    `json:"studentNumber" validate:"omitempty,min=1"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=100"`
	ClassName     *string `json:"className" validate:"omitempty,max=50"`
	Grade         *int    `json:"grade" validate:"omitempty,oneof=1 2"`
}

// CreateSubjectRequest is the body of POST /subjects.
type CreateSubjectRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Teacher       string  `json:"teacher" validate:"max=100"`
	RequiredHours float64 `json:"requiredHours" validate:"min=0"`
}

// UpdateSubjectRequest is the body of PATCH /subjects/:id.
type UpdateSubjectRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Teacher       *string  `json:"teacher" validate:"omitempty,max=100"`
	RequiredHours *float64 `json:"requiredHours" validate:"omitempty,min=0"`
}
