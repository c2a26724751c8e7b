package services

import "digitalhippo/contexts/identity-access/entitlement-service/domain/entities"

// Evaluate applies the static entitlement rules in precedence order and
// returns the first match. The one data-dependent case, a customer reading
// product files, is reported as handled=false so the caller can compute the
// accessible-file union from purchase history.
func Evaluate(
	actor entities.Actor,
	collection entities.Collection,
	operation entities.Operation,
) (entities.Decision, bool) {
	// Admins pass every check on every collection.
	if actor.IsAdmin() {
		return entities.Allow("admin"), true
	}

	if actor.IsAnonymous() {
		return evaluateAnonymous(collection, operation), true
	}

	if collection == entities.CollectionProductFiles && operation == entities.OperationRead {
		return entities.Decision{}, false
	}

	return evaluateCustomer(actor, collection, operation), true
}

func evaluateAnonymous(collection entities.Collection, operation entities.Operation) entities.Decision {
	if operation != entities.OperationRead {
		return entities.Deny("anonymous_write")
	}
	switch collection {
	case entities.CollectionProducts:
		return entities.Filtered("anonymous_approved_only", ApprovedProductsClause())
	case entities.CollectionMedia:
		// Product imagery is public storefront content.
		return entities.Allow("public_media")
	default:
		return entities.Deny("anonymous_read")
	}
}

func evaluateCustomer(
	actor entities.Actor,
	collection entities.Collection,
	operation entities.Operation,
) entities.Decision {
	switch collection {
	case entities.CollectionUsers:
		if operation == entities.OperationRead {
			return entities.Filtered("own_record", OwnerClause("id", actor.ID))
		}
		return entities.Deny("customer_user_write")

	case entities.CollectionProducts:
		switch operation {
		case entities.OperationRead:
			// A seller sees their own products in any status; everyone
			// else's only once approved.
			return entities.Filtered("own_or_approved",
				OwnerClause("user", actor.ID),
				ApprovedProductsClause(),
			)
		case entities.OperationCreate:
			return entities.Allow("seller_create")
		case entities.OperationUpdate, entities.OperationDelete:
			return entities.Filtered("own_products", OwnerClause("user", actor.ID))
		}

	case entities.CollectionOrders:
		if operation == entities.OperationRead {
			return entities.Filtered("own_orders", OwnerClause("user", actor.ID))
		}
		// Orders are created by the checkout flow, never directly.
		return entities.Deny("order_write")

	case entities.CollectionProductFiles:
		if operation == entities.OperationCreate {
			return entities.Allow("seller_upload")
		}
		return entities.Deny("file_write")

	case entities.CollectionMedia:
		switch operation {
		case entities.OperationRead:
			return entities.Allow("public_media")
		case entities.OperationCreate:
			return entities.Allow("seller_upload")
		case entities.OperationUpdate, entities.OperationDelete:
			// Sellers manage the imagery they uploaded.
			return entities.Filtered("own_media", OwnerClause("user", actor.ID))
		}
		return entities.Deny("media_write")
	}

	return entities.Deny("default")
}

// OwnerClause scopes reads to records whose ownership field equals the
// actor id.
func OwnerClause(field string, actorID string) entities.Predicate {
	return entities.Predicate{
		Field:  field,
		Op:     entities.OpEquals,
		Values: []string{actorID},
	}
}

// ApprovedProductsClause limits product reads to listings approved for sale.
func ApprovedProductsClause() entities.Predicate {
	return entities.Predicate{
		Field:  "approved_for_sale",
		Op:     entities.OpEquals,
		Values: []string{"approved"},
	}
}

// FileUnionDecision builds the product-file read decision from the union of
// owned and purchased file ids. An empty union is an outright deny.
func FileUnionDecision(fileIDs []string) entities.Decision {
	if len(fileIDs) == 0 {
		return entities.Deny("no_accessible_files")
	}
	return entities.Filtered("owned_or_purchased", entities.Predicate{
		Field:  "id",
		Op:     entities.OpIn,
		Values: fileIDs,
	})
}
