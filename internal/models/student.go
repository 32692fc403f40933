package models

import "sort"

// Student is a pupil tracked by the attendance book.
type Student struct {
	ID            string `json:"id"`
	StudentNumber int    `json:"studentNumber"`
	Name          string `json:"name"`
	ClassName     string `json:"className"`
	Grade         int    `json:"grade"`
}

// StudentInput carries the mutable fields of a student.
type StudentInput struct {
	StudentNumber int
	Name          string
	ClassName     string
	Grade         int
}

// StudentPatch is a partial update; nil fields are left untouched.
type StudentPatch struct {
	StudentNumber *int
	Name          *string
	ClassName     *string
	Grade         *int
}

// Apply merges the patch into s.
func (p StudentPatch) Apply(s Student) Student {
	if p.StudentNumber != nil {
		s.StudentNumber = *p.StudentNumber
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.ClassName != nil {
		s.ClassName = *p.ClassName
	}
	if p.Grade != nil {
		s.Grade = *p.Grade
	}
	return s
}

// ValidGrade reports whether grade is one of the two school years.
func ValidGrade(grade int) bool {
	return grade == 1 || grade == 2
}

// SortStudents orders students by (grade, studentNumber) ascending. Ties keep
// their insertion order.
func SortStudents(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		if students[i].Grade != students[j].Grade {
			return students[i].Grade < students[j].Grade
		}
		return students[i].StudentNumber < students[j].StudentNumber
	})
}
