package models

// Subject is a course that timetable slots point at.
type Subject struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Teacher       string  `json:"teacher"`
	RequiredHours float64 `json:"requiredHours"`
}

// SubjectInput carries the mutable fields of a subject.
type SubjectInput struct {
	Name          string
	Teacher       string
	RequiredHours float64
}

// SubjectPatch is a partial update; nil fields are left untouched.
type SubjectPatch struct {
	Name          *string
	Teacher       *string
	RequiredHours *float64
}

// Apply merges the patch into s.
func (p SubjectPatch) Apply(s Subject) Subject {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Teacher != nil {
		s.Teacher = *p.Teacher
	}
	if p.RequiredHours != nil {
		s.RequiredHours = *p.RequiredHours
	}
	return s
}
