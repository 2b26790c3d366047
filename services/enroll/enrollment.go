package enroll

import (
	"errors"
	"time"

	"lms/apperr"
	"lms/cache"
	courseModels "lms/models/course"
	"lms/services/access"

	"gorm.io/gorm"
)

// Service owns enrollments and everything recorded against them:
// progress, quiz submissions, assignments, and the derived statistics.
type Service struct {
	db     *gorm.DB
	cache  *cache.Cache
	access *access.Evaluator
}

func New(db *gorm.DB, c *cache.Cache, eval *access.Evaluator) *Service {
	return &Service{db: db, cache: c, access: eval}
}

// Enroll enrolls a user into a course. The operation is idempotent: an
// active enrollment is returned as-is, a dropped one is reactivated,
// and a completed one stays completed.
func (s *Service) Enroll(userID, courseID uint) (*courseModels.Enrollment, error) {
	if err := s.access.RequireAccess(userID, courseID); err != nil {
		return nil, err
	}

	var enrollment courseModels.Enrollment
	err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	switch {
	case err == nil:
		if enrollment.Status != courseModels.StatusDropped {
			return &enrollment, nil
		}
		// reactivation restarts the course
		updates := map[string]interface{}{
			"status":       courseModels.StatusEnrolled,
			"completed_at": nil,
		}
		if err := s.db.Model(&enrollment).Updates(updates).Error; err != nil {
			return nil, apperr.Internal(err, "failed to reactivate enrollment")
		}
		enrollment.Status = courseModels.StatusEnrolled
		enrollment.CompletedAt = nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = courseModels.Enrollment{
			UserID:     userID,
			CourseID:   courseID,
			Status:     courseModels.StatusEnrolled,
			EnrolledAt: time.Now(),
		}
		if err := s.db.Create(&enrollment).Error; err != nil {
			return nil, apperr.Internal(err, "failed to create enrollment")
		}

	default:
		return nil, apperr.Internal(err, "failed to fetch enrollment")
	}

	s.cache.InvalidateUserAccess(userID, courseID)
	s.cache.Delete(cache.PopularCoursesKey())
	return &enrollment, nil
}

// Drop marks the enrollment dropped. Progress records are kept; a later
// re-enroll resumes on the same row.
func (s *Service) Drop(userID, courseID uint) (*courseModels.Enrollment, error) {
	enrollment, err := s.activeEnrollment(userID, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(enrollment).Update("status", courseModels.StatusDropped).Error; err != nil {
		return nil, apperr.Internal(err, "failed to drop enrollment")
	}
	enrollment.Status = courseModels.StatusDropped

	s.cache.InvalidateUserAccess(userID, courseID)
	s.cache.Delete(cache.PopularCoursesKey())
	return enrollment, nil
}

// EnrollmentWithCourse pairs an enrollment with its course for listings.
type EnrollmentWithCourse struct {
	courseModels.Enrollment
	Course courseModels.Course `json:"course" gorm:"-"`
}

// UserEnrollments lists a user's enrollments, newest first, with their
// courses attached.
func (s *Service) UserEnrollments(userID uint, status string) ([]EnrollmentWithCourse, error) {
	if status != "" && status != courseModels.StatusEnrolled &&
		status != courseModels.StatusCompleted && status != courseModels.StatusDropped {
		return nil, apperr.InvalidArgument("invalid enrollment status %q", status)
	}

	cacheable := status == ""
	var cached []EnrollmentWithCourse
	if cacheable && s.cache.Get(cache.UserEnrollmentsKey(userID), &cached) {
		return cached, nil
	}

	query := s.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var enrollments []courseModels.Enrollment
	if err := query.Order("enrolled_at desc").Find(&enrollments).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch enrollments")
	}

	result, err := s.attachCourses(enrollments)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.cache.Set(cache.UserEnrollmentsKey(userID), result, 0)
	}
	return result, nil
}

// CourseEnrollments lists a course's enrollments. Restricted to callers
// with edit rights on the course.
func (s *Service) CourseEnrollments(userID, courseID uint) ([]courseModels.Enrollment, error) {
	if err := s.access.RequireEdit(userID, courseID); err != nil {
		return nil, err
	}

	var enrollments []courseModels.Enrollment
	if err := s.db.Where("course_id = ?", courseID).
		Order("enrolled_at desc").Find(&enrollments).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch enrollments")
	}
	return enrollments, nil
}

func (s *Service) attachCourses(enrollments []courseModels.Enrollment) ([]EnrollmentWithCourse, error) {
	if len(enrollments) == 0 {
		return []EnrollmentWithCourse{}, nil
	}

	courseIDs := make([]uint, len(enrollments))
	for i, e := range enrollments {
		courseIDs[i] = e.CourseID
	}

	var courses []courseModels.Course
	if err := s.db.Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch courses")
	}
	byID := make(map[uint]courseModels.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	result := make([]EnrollmentWithCourse, len(enrollments))
	for i, e := range enrollments {
		result[i] = EnrollmentWithCourse{Enrollment: e, Course: byID[e.CourseID]}
	}
	return result, nil
}

// activeEnrollment loads the caller's non-dropped enrollment or reports
// NotEnrolled.
func (s *Service) activeEnrollment(userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := s.db.Where("user_id = ? AND course_id = ? AND status != ?",
		userID, courseID, courseModels.StatusDropped).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotEnrolled("you are not enrolled in this course")
		}
		return nil, apperr.Internal(err, "failed to fetch enrollment")
	}
	return &enrollment, nil
}
