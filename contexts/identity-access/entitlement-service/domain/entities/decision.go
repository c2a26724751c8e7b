package entities

import "strings"

// Role is the account role evaluated for every operation.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Actor is the identity (or anonymity) a request is evaluated for.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAnonymous() bool {
	return strings.TrimSpace(a.ID) == ""
}

func (a Actor) IsAdmin() bool {
	return !a.IsAnonymous() && a.Role == RoleAdmin
}

// Collection names one record type governed by the evaluator.
type Collection string

const (
	CollectionUsers        Collection = "users"
	CollectionProducts     Collection = "products"
	CollectionProductFiles Collection = "product_files"
	CollectionOrders       Collection = "orders"
	CollectionMedia        Collection = "media"
)

// Operation is the action being attempted on a collection.
type Operation string

const (
	OperationRead   Operation = "read"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Effect is the tagged outcome of an entitlement evaluation.
type Effect string

const (
	EffectAllow  Effect = "allow"
	EffectDeny   Effect = "deny"
	EffectFilter Effect = "filter"
)

// PredicateOp is the comparison applied by a filter clause.
type PredicateOp string

const (
	OpEquals PredicateOp = "eq"
	OpIn     PredicateOp = "in"
)

// Predicate restricts a read to records matching one field clause.
type Predicate struct {
	Field  string
	Op     PredicateOp
	Values []string
}

// Decision is the computed entitlement for an actor-collection-operation
// triple. Filter clauses are OR-combined: a record is visible when any
// clause matches it.
type Decision struct {
	Effect Effect
	Filter []Predicate
	Reason string
}

func Allow(reason string) Decision {
	return Decision{Effect: EffectAllow, Reason: reason}
}

func Deny(reason string) Decision {
	return Decision{Effect: EffectDeny, Reason: reason}
}

func Filtered(reason string, clauses ...Predicate) Decision {
	if len(clauses) == 0 {
		return Deny(reason)
	}
	return Decision{Effect: EffectFilter, Filter: clauses, Reason: reason}
}

func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// PermitsID reports whether a record with the given id passes the decision.
// Only id-based clauses can be judged here; owner-scoped clauses need the
// record itself and always report false.
func (d Decision) PermitsID(id string) bool {
	switch d.Effect {
	case EffectAllow:
		return true
	case EffectFilter:
		for _, clause := range d.Filter {
			if clause.Field != "id" {
				continue
			}
			for _, value := range clause.Values {
				if value == id {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}
