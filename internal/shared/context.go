package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the username performing the request.
func ContextWithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, username)
}

// ActorFromContext returns the acting username, or "anonymous".
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorContextKey{}).(string); ok && actor != "" {
		return actor
	}
	return "anonymous"
}
