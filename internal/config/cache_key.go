package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ClientNamespace returns the key prefix that isolates one browser client's storage
func (r *CacheKeyStruct) ClientNamespace(clientID string) string {
	return fmt.Sprintf("client:%s:", clientID)
}

// QuizPayloadKey returns the cache key for a shuffled quiz payload
func (r *CacheKeyStruct) QuizPayloadKey(identity string) string {
	return fmt.Sprintf("quiz:%s:payload", identity)
}

// QuizProgressKey returns the cache key for an in-flight progress snapshot
func (r *CacheKeyStruct) QuizProgressKey(identity string) string {
	return fmt.Sprintf("quiz:%s:progress", identity)
}

// LastIdentityKey returns the cache key holding the last-used quiz-set identity
func (r *CacheKeyStruct) LastIdentityKey() string {
	return "quiz:last_identity"
}

// AdminCredentialKey returns the cache key for the stored admin credential
func (r *CacheKeyStruct) AdminCredentialKey() string {
	return "admin:credential"
}

// WeekSelectionKey returns the cache key for a week's memoized quiz selection
func (r *CacheKeyStruct) WeekSelectionKey(weekID string) string {
	return fmt.Sprintf("week:%s:selection", weekID)
}

var CacheKey = NewCacheKeyStruct()
