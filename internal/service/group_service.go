package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/kakeibo/internal/middleware"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/storage"
	"github.com/mmynk/kakeibo/pkg/api"
)

const (
	inviteCodeLength   = 6
	inviteCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	inviteCodeAttempts = 5
)

// GroupService implements the Connect GroupService: creating a household,
// joining it with an invite code and editing its settings.
type GroupService struct {
	store storage.Store
}

var _ api.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// newInviteCode returns a random code of [0-9A-Z].
func newInviteCode() (string, error) {
	var b strings.Builder
	base := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// requireNoGroup fails when the user already belongs to a household.
func (s *GroupService) requireNoGroup(ctx context.Context, userID string) error {
	_, err := s.store.GetGroupForUser(ctx, userID)
	if err == nil {
		return ErrHasGroup
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// displayName picks the requested name, falling back to the account name.
func (s *GroupService) displayName(ctx context.Context, userID, requested string) (string, error) {
	if name := strings.TrimSpace(requested); name != "" {
		return name, nil
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || strings.TrimSpace(user.DisplayName) == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.New("display name is required"))
	}
	return user.DisplayName, nil
}

// CreateGroup creates a household with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("CreateGroup request received", "user_id", userID, "name", req.Msg.Name)

	if err := s.requireNoGroup(ctx, userID); err != nil {
		return nil, toConnectError(err)
	}
	name, err := s.displayName(ctx, userID, req.Msg.DisplayName)
	if err != nil {
		return nil, toConnectError(err)
	}
	groupName := strings.TrimSpace(req.Msg.Name)
	if groupName == "" {
		groupName = name + "の家計簿"
	}

	var group *models.Group
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := newInviteCode()
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("generate invite code: %w", err))
		}
		if _, err := s.store.GetGroupByInviteCode(ctx, code); !errors.Is(err, storage.ErrNotFound) {
			continue
		}
		group = &models.Group{
			Name:       groupName,
			InviteCode: code,
			Members:    []models.Member{{UserID: userID, DisplayName: name}},
			Categories: models.DefaultCategories(),
		}
		break
	}
	if group == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errors.New("could not allocate an invite code"))
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID, "invite_code", group.InviteCode)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// JoinGroup adds the caller to the household behind an invite code.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("JoinGroup request received", "user_id", userID)

	code := strings.TrimSpace(req.Msg.InviteCode)
	if code == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("invite code is required"))
	}
	group, err := s.store.GetGroupByInviteCode(ctx, code)
	if err != nil {
		return nil, toConnectError(err)
	}
	if group.HasMember(userID) {
		return nil, toConnectError(storage.ErrAlreadyMember)
	}
	if err := s.requireNoGroup(ctx, userID); err != nil {
		return nil, toConnectError(err)
	}

	name, err := s.displayName(ctx, userID, req.Msg.DisplayName)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.AddMember(ctx, group.ID, models.Member{UserID: userID, DisplayName: name}); err != nil {
		slog.Warn("JoinGroup failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	joined, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Member joined group", "group_id", group.ID, "user_id", userID)
	return connect.NewResponse(&api.JoinGroupResponse{Group: toAPIGroup(joined)}), nil
}

// GetMyGroup returns the caller's household, or no group when they have none yet.
func (s *GroupService) GetMyGroup(ctx context.Context, req *connect.Request[api.GetMyGroupRequest]) (*connect.Response[api.GetMyGroupResponse], error) {
	group, err := s.store.GetGroupForUser(ctx, middleware.GetUserID(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewResponse(&api.GetMyGroupResponse{}), nil
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetMyGroupResponse{Group: toAPIGroup(group)}), nil
}

// UpdateSettings renames members by position and replaces the category list.
func (s *GroupService) UpdateSettings(ctx context.Context, req *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.UpdateSettingsResponse], error) {
	group, err := groupForCaller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	settings := models.Settings{
		Users:      cleanList(req.Msg.Users),
		Categories: cleanList(req.Msg.Categories),
	}
	if len(req.Msg.Users) > 0 && len(settings.Users) != len(req.Msg.Users) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user names must be non-empty and distinct"))
	}

	updated, err := s.store.UpdateSettings(ctx, group.ID, settings)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Settings updated", "group_id", group.ID, "categories", len(updated.Categories))
	return connect.NewResponse(&api.UpdateSettingsResponse{Group: toAPIGroup(updated)}), nil
}

// groupForCaller resolves the household of the authenticated user.
func groupForCaller(ctx context.Context, groups storage.GroupStore) (*models.Group, error) {
	group, err := groups.GetGroupForUser(ctx, middleware.GetUserID(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoGroup
	}
	return group, err
}

// cleanList trims entries and drops blanks and duplicates, keeping order.
func cleanList(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
