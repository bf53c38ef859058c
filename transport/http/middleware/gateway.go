package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"strings"

	"pcbank/domain/entities"
	"pcbank/transport/http/response"
)

// Headers set by the upstream auth gateway
const (
	HeaderGatewayKey   = "X-Gateway-Key"
	HeaderActorID      = "X-Actor-Id"
	HeaderActorRole    = "X-Actor-Role"
	HeaderActorTurma   = "X-Actor-Turma"
	HeaderActorCargos  = "X-Actor-Cargos"
	HeaderActorBlocked = "X-Actor-Blocked"
)

var errGatewayKey = &entities.DomainError{
	Kind:    entities.ErrorKindForbidden,
	Reason:  entities.ReasonForbidden,
	Message: "request did not come through the gateway",
}

// GatewayAuth rejects requests without the shared gateway key. An empty key
// disables the check.
func GatewayAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" {
				got := r.Header.Get(HeaderGatewayKey)
				if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
					response.Error(w, errGatewayKey)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Actor reads the caller identity forwarded by the gateway into the request
// context. A request without X-Actor-Id carries the zero actor, which the
// engine rejects for every operation that needs one.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := parseActor(r)
		if err != nil {
			response.Error(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor stored by the Actor middleware
func ActorFromContext(ctx context.Context) (entities.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(entities.Actor)
	return actor, ok
}

func parseActor(r *http.Request) (entities.Actor, error) {
	actor := entities.Actor{OriginAddress: originAddress(r)}

	if raw := strings.TrimSpace(r.Header.Get(HeaderActorID)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return actor, entities.Validation("%s must be a positive integer", HeaderActorID)
		}
		actor.AccountID = id
	}

	actor.Role = entities.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole))))
	if actor.Role == "" {
		actor.Role = entities.RoleStudent
	}
	actor.Turma = strings.TrimSpace(r.Header.Get(HeaderActorTurma))

	for _, cargo := range strings.Split(r.Header.Get(HeaderActorCargos), ",") {
		if cargo = strings.ToLower(strings.TrimSpace(cargo)); cargo != "" {
			actor.Cargos = append(actor.Cargos, cargo)
		}
	}

	if raw := strings.TrimSpace(r.Header.Get(HeaderActorBlocked)); raw != "" {
		blocked, err := strconv.ParseBool(raw)
		if err != nil {
			return actor, entities.Validation("%s must be a boolean", HeaderActorBlocked)
		}
		actor.Blocked = blocked
	}

	return actor, nil
}

// originAddress strips the port from RemoteAddr, which chi's RealIP has
// already replaced with the forwarded client address when present.
func originAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
