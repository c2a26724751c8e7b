package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"digitalhippo/contexts/identity-access/entitlement-service/application"
	"digitalhippo/contexts/identity-access/entitlement-service/domain/entities"
	httptransport "digitalhippo/contexts/identity-access/entitlement-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CheckAccessHandler(
	ctx context.Context,
	actor entities.Actor,
	req httptransport.CheckAccessRequest,
) (httptransport.CheckAccessResponse, error) {
	decision, err := h.Service.EvaluateAccess(
		ctx,
		actor,
		entities.Collection(strings.TrimSpace(req.Collection)),
		entities.Operation(strings.TrimSpace(req.Operation)),
	)
	if err != nil {
		return httptransport.CheckAccessResponse{}, err
	}

	resp := httptransport.CheckAccessResponse{
		Effect: string(decision.Effect),
		Reason: decision.Reason,
	}
	for _, clause := range decision.Filter {
		resp.Filter = append(resp.Filter, httptransport.PredicateDTO{
			Field:  clause.Field,
			Op:     string(clause.Op),
			Values: append([]string(nil), clause.Values...),
		})
	}
	if target := strings.TrimSpace(req.TargetID); target != "" {
		allowed := decision.PermitsID(target)
		resp.TargetAllowed = &allowed
	}
	return resp, nil
}
