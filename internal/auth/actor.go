package auth

import "context"

type actorKey struct{}

// WithActor returns ctx carrying the email of the admin performing a request
func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorKey{}, email)
}

// ActorFromContext returns the admin email stored by WithActor, or ""
func ActorFromContext(ctx context.Context) string {
	email, _ := ctx.Value(actorKey{}).(string)
	return email
}
