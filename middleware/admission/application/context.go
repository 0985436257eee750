package application

import "context"

type methodKey struct{}

// ContextWithMethod guarda o método da requisição em ctx, para os eventos de
// stats carregarem o método sem este pacote conhecer HTTP.
func ContextWithMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodKey{}, method)
}

func MethodFromContext(ctx context.Context) string {
	m, _ := ctx.Value(methodKey{}).(string)
	return m
}
