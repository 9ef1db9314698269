// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/pkg/database"
)

// NewDB opens a migrated sqlite database under t.TempDir. A single
// connection keeps concurrent tests clear of sqlite lock errors.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     filepath.Join(t.TempDir(), "chat.db"),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.Models()...))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// SeedUser inserts a user and, when prefs is non-nil, its profile.
func SeedUser(t testing.TB, db *gorm.DB, id, first, last string, prefs map[string]any) {
	t.Helper()

	require.NoError(t, db.Create(&domain.UserModel{
		ID:        id,
		Email:     id + "@example.com",
		FirstName: first,
		LastName:  last,
		IsActive:  true,
	}).Error)

	if prefs != nil {
		require.NoError(t, db.Create(&domain.UserProfileModel{
			UserID:                  id,
			NotificationPreferences: database.JSONMap(prefs),
		}).Error)
	}
}

// SeedConversation inserts a conversation with the given participants.
func SeedConversation(t testing.TB, db *gorm.DB, id string, active bool, participants ...string) {
	t.Helper()

	require.NoError(t, db.Create(&domain.ConversationModel{
		ID:           id,
		Participants: database.StringArray(participants),
		IsActive:     true,
	}).Error)

	// gorm skips zero values that have a column default on insert.
	if !active {
		require.NoError(t, db.Model(&domain.ConversationModel{}).Where("id = ?", id).Update("is_active", false).Error)
	}
}

// CountMessages returns the number of rows in messages for a conversation.
func CountMessages(t testing.TB, db *gorm.DB, conversationID string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&domain.MessageModel{}).Where("conversation_id = ?", conversationID).Count(&n).Error)
	return n
}

// CountNotifications returns the number of notifications for a user.
func CountNotifications(t testing.TB, db *gorm.DB, userID string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&domain.NotificationModel{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}
