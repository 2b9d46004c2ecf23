package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PracticeSessionKey returns the slot key holding an owner's serialized session
func (r *CacheKeyStruct) PracticeSessionKey(ownerID string) string {
	return fmt.Sprintf("practice:%s:session", ownerID)
}

// PracticeQuestionsKey returns the slot key holding an owner's question set
func (r *CacheKeyStruct) PracticeQuestionsKey(ownerID string) string {
	return fmt.Sprintf("practice:%s:questions", ownerID)
}

var CacheKey = NewCacheKeyStruct()
