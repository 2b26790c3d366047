package cache

import (
	"fmt"
	"time"
)

// Key prefixes. All cache traffic goes through these helpers so that
// write paths invalidate one place instead of scattering key strings
// across services.
const (
	coursePrefix            = "course:"
	courseModulesPrefix     = "course:modules:"
	accessPrefix            = "access:"
	userEnrollmentsPrefix   = "enrollments:user:"
	courseEnrollmentsPrefix = "enrollments:course:"
	popularCoursesKey       = "courses:popular"
	recentCoursesKey        = "courses:recent"
)

// AccessTTL is deliberately short: access decisions tolerate staleness
// only briefly (role and enrollment writes also invalidate eagerly).
const (
	AccessTTL     = 1 * time.Minute
	PopularityTTL = 10 * time.Minute
)

func CourseKey(courseID uint) string { return fmt.Sprintf("%s%d", coursePrefix, courseID) }

func CourseModulesKey(courseID uint) string {
	return fmt.Sprintf("%s%d", courseModulesPrefix, courseID)
}

func AccessKey(userID, courseID uint) string {
	return fmt.Sprintf("%s%d:course:%d", accessPrefix, userID, courseID)
}

func UserEnrollmentsKey(userID uint) string {
	return fmt.Sprintf("%s%d", userEnrollmentsPrefix, userID)
}

func CourseEnrollmentsKey(courseID uint) string {
	return fmt.Sprintf("%s%d", courseEnrollmentsPrefix, courseID)
}

func PopularCoursesKey() string { return popularCoursesKey }

func RecentCoursesKey() string { return recentCoursesKey }

// InvalidateCourse evicts everything derived from a course: the course
// itself, its module tree, its enrollment lists, the popularity
// rankings, and every cached access decision that names it.
func (c *Cache) InvalidateCourse(courseID uint) {
	c.Delete(
		CourseKey(courseID),
		CourseModulesKey(courseID),
		CourseEnrollmentsKey(courseID),
		popularCoursesKey,
		recentCoursesKey,
	)
	if keys := c.Keys(fmt.Sprintf("%s*:course:%d", accessPrefix, courseID)); len(keys) > 0 {
		c.Delete(keys...)
	}
}

// InvalidateUserAccess evicts a single user's cached decision for a
// course along with their enrollment list. Called on enrollment writes.
func (c *Cache) InvalidateUserAccess(userID, courseID uint) {
	c.Delete(
		AccessKey(userID, courseID),
		UserEnrollmentsKey(userID),
		CourseEnrollmentsKey(courseID),
	)
}

// InvalidateUserRoles evicts every access decision cached for a user.
// Role grants affect an unknown set of courses, so the pattern sweep is
// the safe option.
func (c *Cache) InvalidateUserRoles(userID uint) {
	if keys := c.Keys(fmt.Sprintf("%s%d:course:*", accessPrefix, userID)); len(keys) > 0 {
		c.Delete(keys...)
	}
}
