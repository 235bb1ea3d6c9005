package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name" validate:"required"`
		Description  string `json:"description"`
		GroupAdminID int64  `json:"groupAdminID" validate:"required"`
		MaxMembers   int32  `json:"maxMembers" validate:"omitempty,min=2"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, err := h.repository.GetUserByID(req.GroupAdminID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.errorResponse(w, r, "Group admin user not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	group := &domain.Group{
		Name:         req.Name,
		Description:  req.Description,
		GroupAdminID: req.GroupAdminID,
		MemberIDs:    []int64{req.GroupAdminID},
		MaxMembers:   req.MaxMembers,
	}
	if group.MaxMembers == 0 {
		group.MaxMembers = 10
	}

	if err := h.repository.CreateGroup(group); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "groups_name_key":
			h.badRequest(w, r, errors.New("group name already exists"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Group created", group)
}

func (h *Handler) GetAllGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.repository.GetAllGroups()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Groups fetched", groups)
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)
	h.successResponse(w, r, "Group fetched", group)
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		MaxMembers  *int32  `json:"maxMembers" validate:"omitempty,min=2"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	group := r.Context().Value(GroupCtx).(*domain.Group)

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.MaxMembers != nil {
		if int(*req.MaxMembers) < len(group.MemberIDs) {
			h.errorResponse(w, r, "Member limit cannot be lower than the current member count")
			return
		}
		group.MaxMembers = *req.MaxMembers
	}

	if err := h.repository.UpdateGroup(group); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "groups_name_key":
			h.badRequest(w, r, errors.New("group name already exists"))
		case errors.Is(err, repository.ErrNotFound):
			h.errorResponse(w, r, "Group update failed, please try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Group updated", group)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)

	if err := h.repository.DeleteGroup(group.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Group deleted", nil)
}

func (h *Handler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    int64 `json:"userID" validate:"required"`
		IsCoAdmin bool  `json:"isCoAdmin"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	group := r.Context().Value(GroupCtx).(*domain.Group)

	if group.HasMember(req.UserID) {
		h.errorResponse(w, r, "User is already a member of this group")
		return
	}
	if len(group.MemberIDs) >= int(group.MaxMembers) {
		h.errorResponse(w, r, "Group is full")
		return
	}

	if _, err := h.repository.GetUserByID(req.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.errorResponse(w, r, "User not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.repository.AddGroupMember(group.ID, req.UserID, req.IsCoAdmin); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Member added", nil)
}

func (h *Handler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)

	userIDParam := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "Invalid user ID")
		return
	}

	if userID == group.GroupAdminID {
		h.errorResponse(w, r, "The group admin cannot be removed")
		return
	}
	if !group.HasMember(userID) {
		h.errorResponse(w, r, "User is not a member of this group")
		return
	}

	if err := h.repository.RemoveGroupMember(group.ID, userID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Member removed", nil)
}
