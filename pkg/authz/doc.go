// Package authz orchestrates authorization requests against the Cedar
// policy engine.
//
// The package sits between caller-supplied access-control inputs and the
// engine: it normalizes heterogeneous surface forms (typed-reference
// strings or structured pairs, entity graphs as records or JSON text,
// schemas as JSON or Cedar-native text) into the engine's strict internal
// representation, evaluates single requests or ordered batches against one
// shared policy/entity/schema context, and marshals decisions plus
// diagnostics back into immutable result values.
//
// # Usage
//
//	a := authz.New(authz.DefaultConfig())
//
//	result, err := a.IsAuthorized(ctx,
//		authz.Request{
//			Principal: authz.RefString(`User::"bob"`),
//			Action:    authz.RefString(`Action::"view"`),
//			Resource:  authz.RefString(`Photo::"1234-abcd"`),
//			Context:   authz.ContextMap{},
//		},
//		authz.PolicyText(`permit(principal, action == Action::"view", resource);`),
//		authz.EntityRecords{{UID: authz.UID{Type: "User", ID: "bob"}, Attrs: map[string]any{}, Parents: []authz.UID{}}},
//		nil,
//	)
//	if err != nil {
//		// shared policies/entities/schema failed to normalize
//	}
//	if result.Allowed() {
//		// ...
//	}
//
// # Batches
//
// IsAuthorizedBatch normalizes policies, entities, and schema once and
// evaluates every request against that shared, read-only context. Results
// come back in input order; a request that fails to normalize yields an
// error result in its own slot without disturbing its siblings, while a
// failure in the shared inputs aborts the whole batch with a
// SharedContextError.
//
// # Thread Safety
//
// Authorizer is immutable after construction and safe for concurrent use.
// No call holds state across invocations and nothing here performs network
// or disk I/O.
//
// # Decision Logging
//
// Every authorization decision is logged with structured fields including
// principal, action, resource, decision, and duration. Configure logging
// via Config.Logger.
package authz
