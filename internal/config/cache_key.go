package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionSetKey returns the cache key for an assessment target's question set.
// targetKey is "chapter-test:<chapter_id>" or "final-exam:<course_id>".
func (r *CacheKeyStruct) QuestionSetKey(targetKey string) string {
	return fmt.Sprintf("questions:%s", targetKey)
}

// QuizSetKey returns the cache key for a lesson's quiz question set.
func (r *CacheKeyStruct) QuizSetKey(lessonID string) string {
	return fmt.Sprintf("questions:quiz:%s", lessonID)
}

// CourseOutlineKey returns the cache key for a course's chapter/lesson outline.
func (r *CacheKeyStruct) CourseOutlineKey(courseID string) string {
	return fmt.Sprintf("course:%s:outline", courseID)
}

var CacheKey = NewCacheKeyStruct()
