package httpadapter

import (
	"context"
	"log/slog"

	"digitalhippo/contexts/identity-access/user-service/application"
	"digitalhippo/contexts/identity-access/user-service/domain/entities"
	httptransport "digitalhippo/contexts/identity-access/user-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterHandler(ctx context.Context, req httptransport.RegisterRequest) (httptransport.RegisterResponse, error) {
	user, err := h.Service.Register(ctx, req.Email, req.Password)
	if err != nil {
		return httptransport.RegisterResponse{}, err
	}
	return httptransport.RegisterResponse{
		User:        mapUser(user),
		SentToEmail: user.Email,
	}, nil
}

func (h Handler) VerifyEmailHandler(ctx context.Context, token string) (httptransport.VerifyEmailResponse, error) {
	user, err := h.Service.VerifyEmail(ctx, token)
	if err != nil {
		return httptransport.VerifyEmailResponse{}, err
	}
	return httptransport.VerifyEmailResponse{User: mapUser(user)}, nil
}

func (h Handler) LoginHandler(ctx context.Context, req httptransport.LoginRequest) (httptransport.LoginResponse, error) {
	user, token, err := h.Service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httptransport.LoginResponse{}, err
	}
	return httptransport.LoginResponse{
		User:  mapUser(user),
		Token: token,
	}, nil
}

func (h Handler) GetUserHandler(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	userID string,
) (httptransport.GetUserResponse, error) {
	user, err := h.Service.GetUser(ctx, actorID, actorIsAdmin, userID)
	if err != nil {
		return httptransport.GetUserResponse{}, err
	}
	return httptransport.GetUserResponse{User: mapUser(user)}, nil
}

func (h Handler) ChangeRoleHandler(
	ctx context.Context,
	actorIsAdmin bool,
	userID string,
	req httptransport.ChangeRoleRequest,
) (httptransport.ChangeRoleResponse, error) {
	user, err := h.Service.ChangeRole(ctx, actorIsAdmin, userID, entities.Role(req.Role))
	if err != nil {
		return httptransport.ChangeRoleResponse{}, err
	}
	return httptransport.ChangeRoleResponse{User: mapUser(user)}, nil
}

func mapUser(user entities.User) httptransport.UserDTO {
	return httptransport.UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
