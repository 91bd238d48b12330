package actorctx

import (
	"context"

	"github.com/peopleops/hrhub/internal/authz"
)

type ctxKey string

const actorKey ctxKey = "actor"

func WithActor(ctx context.Context, actor authz.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFrom(ctx context.Context) (authz.Actor, bool) {
	v, ok := ctx.Value(actorKey).(authz.Actor)

	return v, ok && v.UserID != ""
}
