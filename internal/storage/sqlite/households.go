package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/storage"
)

// CreateGroup persists a new household with its members and categories.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if len(group.Members) > models.MaxGroupMembers {
		return storage.ErrGroupFull
	}
	group.InviteCode = strings.ToUpper(group.InviteCode)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO households (id, name, invite_code, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, group.InviteCode, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert household: %w", err)
	}

	for i, m := range group.Members {
		if err := insertMember(ctx, tx, group.ID, i, m); err != nil {
			return err
		}
	}
	if err := replaceCategories(ctx, tx, group.ID, group.Categories); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, q querier, groupID string, position int, m models.Member) error {
	var userID any
	if m.UserID != "" {
		userID = m.UserID
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO household_members (household_id, position, user_id, display_name) VALUES (?, ?, ?, ?)",
		groupID, position, userID, m.DisplayName,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func replaceCategories(ctx context.Context, q querier, groupID string, categories []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM categories WHERE household_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	for i, name := range categories {
		_, err := q.ExecContext(ctx,
			"INSERT INTO categories (household_id, sort_order, name) VALUES (?, ?, ?)",
			groupID, i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert category: %w", err)
		}
	}
	return nil
}

// GetGroup retrieves a household by ID, including members and categories.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return loadGroup(ctx, s.db, "id = ?", id)
}

// GetGroupByInviteCode finds a household by invite code, ignoring case.
func (s *SQLiteStore) GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	return loadGroup(ctx, s.db, "invite_code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

// GetGroupForUser returns the household the user belongs to.
func (s *SQLiteStore) GetGroupForUser(ctx context.Context, userID string) (*models.Group, error) {
	var groupID string
	err := s.db.QueryRowContext(ctx,
		"SELECT household_id FROM household_members WHERE user_id = ? ORDER BY rowid LIMIT 1",
		userID,
	).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("household for user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find household for user: %w", err)
	}
	return s.GetGroup(ctx, groupID)
}

func loadGroup(ctx context.Context, q querier, where string, arg any) (*models.Group, error) {
	group := &models.Group{}
	err := q.QueryRowContext(ctx,
		"SELECT id, name, invite_code, created_at FROM households WHERE "+where,
		arg,
	).Scan(&group.ID, &group.Name, &group.InviteCode, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("household: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT user_id, display_name FROM household_members WHERE household_id = ? ORDER BY position",
		group.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m models.Member
		var userID sql.NullString
		if err := rows.Scan(&userID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.UserID = userID.String
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	catRows, err := q.QueryContext(ctx,
		"SELECT name FROM categories WHERE household_id = ? ORDER BY sort_order",
		group.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var name string
		if err := catRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		group.Categories = append(group.Categories, name)
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return group, nil
}

// AddMember appends a member to a household.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID string, member models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := loadGroup(ctx, tx, "id = ?", groupID)
	if err != nil {
		return err
	}
	if member.UserID != "" && group.HasMember(member.UserID) {
		return storage.ErrAlreadyMember
	}
	if group.Full() {
		return storage.ErrGroupFull
	}
	if err := group.CheckNewMember(member.DisplayName); err != nil {
		return err
	}
	if err := insertMember(ctx, tx, groupID, len(group.Members), member); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateSettings replaces categories and renames members by position.
func (s *SQLiteStore) UpdateSettings(ctx context.Context, groupID string, settings models.Settings) (*models.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := loadGroup(ctx, tx, "id = ?", groupID)
	if err != nil {
		return nil, err
	}

	if _, err := group.Rename(settings.Users); err != nil {
		return nil, err
	}

	if len(settings.Categories) > 0 {
		if err := replaceCategories(ctx, tx, groupID, settings.Categories); err != nil {
			return nil, err
		}
	}
	for i := 0; i < len(group.Members) && i < len(settings.Users); i++ {
		_, err := tx.ExecContext(ctx,
			"UPDATE household_members SET display_name = ? WHERE household_id = ? AND position = ?",
			settings.Users[i], groupID, i,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to rename member: %w", err)
		}
	}

	updated, err := loadGroup(ctx, tx, "id = ?", groupID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}
