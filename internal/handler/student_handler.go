package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type studentStore interface {
	Students() []models.Student
	Student(id string) (models.Student, error)
	AddStudent(ctx context.Context, in models.StudentInput) (models.Student, error)
	UpdateStudent(ctx context.Context, id string, patch models.StudentPatch) (models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	LicenseInfo() models.LicenseInfo
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentStore
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentStore) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param grade query int false "Filter by grade (1 or 2)"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var query struct {
		Grade int `form:"grade" validate:"omitempty,oneof=1 2"`
	}
	if !bindQuery(c, &query) {
		return
	}
	all := h.students.Students()
	students := make([]models.Student, 0, len(all))
	for _, s := range all {
		if query.Grade == 0 || s.Grade == query.Grade {
			students = append(students, s)
		}
	}
	license := h.students.LicenseInfo()
	meta := map[string]interface{}{"total": len(students), "license": license.Status}
	if license.StudentLimit > 0 {
		meta["limit"] = license.StudentLimit
	}
	response.JSON(c, http.StatusOK, students, meta)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Student(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Free plan student limit reached"
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.AddStudent(c.Request.Context(), models.StudentInput{
		StudentNumber: req.StudentNumber,
		Name:          req.Name,
		ClassName:     req.ClassName,
		Grade:         req.Grade,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.UpdateStudent(c.Request.Context(), c.Param("id"), models.StudentPatch{
		StudentNumber: req.StudentNumber,
		Name:          req.Name,
		ClassName:     req.ClassName,
		Grade:         req.Grade,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student and their attendance records
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
