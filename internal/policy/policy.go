// Package policy is the pure rule evaluator for link writes. Every check is
// a side-effect-free comparison returning nil on success or a *Violation
// carrying a stable reason code. Lookups (entity metadata, existing active
// links) happen elsewhere; the decisions here are pure.
package policy

import (
	"github.com/mesh-intelligence/twine/pkg/types"
)

// CheckLinkType enforces link-type/entity-type compatibility: primary only
// on anchor entities, requested only on position/mou/engagement,
// assigned_to only on assignments.
func CheckLinkType(entityType, linkType string) *types.Violation {
	if !types.ValidEntityType(entityType) {
		return &types.Violation{
			Code: types.CodeValidationError, Field: "entity_type",
			Message: "unknown entity type " + entityType,
		}
	}
	if !types.ValidLinkType(linkType) {
		return &types.Violation{
			Code: types.CodeValidationError, Field: "link_type",
			Message: "unknown link type " + linkType,
		}
	}

	switch linkType {
	case types.LinkPrimary:
		if !types.AnchorEntityType(entityType) {
			return types.NewViolation(types.CodeInvalidLinkType,
				"link type primary is only allowed for anchor entities")
		}
	case types.LinkRequested:
		if !types.RequestableEntityType(entityType) {
			return types.NewViolation(types.CodeInvalidLinkType,
				"link type requested is only allowed for position, mou, engagement")
		}
	case types.LinkAssignedTo:
		if !types.AssignableEntityType(entityType) {
			return types.NewViolation(types.CodeInvalidLinkType,
				"link type assigned_to is only allowed for assignment")
		}
	}
	return nil
}

// CheckNotes enforces the note length limit, counted in code points.
func CheckNotes(notes string) *types.Violation {
	if len([]rune(notes)) > types.NotesMaxLen {
		return &types.Violation{
			Code: types.CodeValidationError, Field: "notes",
			Message: "notes exceeds maximum length of 1000 characters",
		}
	}
	return nil
}

// CheckConfidence rejects confidence scores outside 0..1.
func CheckConfidence(confidence *float64) *types.Violation {
	if confidence == nil {
		return nil
	}
	if *confidence < 0 || *confidence > 1 {
		return &types.Violation{
			Code: types.CodeValidationError, Field: "confidence",
			Message: "confidence must be between 0 and 1",
		}
	}
	return nil
}

// CheckEntity rejects links to nonexistent or archived targets.
func CheckEntity(ref types.EntityRef, meta types.EntityMeta) *types.Violation {
	if !meta.Exists {
		return types.NewViolation(types.CodeEntityNotFound,
			"%s with ID %s not found", ref.Type, ref.ID)
	}
	if meta.Archived {
		return types.NewViolation(types.CodeEntityArchived,
			"cannot link to archived %s", ref.Type)
	}
	return nil
}

// CheckClearance rejects targets classified above the actor's clearance.
// Unclassified targets (level 0) pass for every actor.
func CheckClearance(meta types.EntityMeta, actor types.Actor) *types.Violation {
	if meta.Classification > actor.Clearance {
		return types.NewViolation(types.CodeInsufficientClearance,
			"insufficient clearance level to link to this entity")
	}
	return nil
}

// CheckOrganization rejects targets owned by a different organization than
// the actor's. Targets with no owning organization pass.
func CheckOrganization(meta types.EntityMeta, actor types.Actor) *types.Violation {
	if meta.OrganizationID != "" && meta.OrganizationID != actor.OrganizationID {
		return types.NewViolation(types.CodeOrganizationMismatch,
			"cannot link to entity from a different organization")
	}
	return nil
}

// CheckUniqueness rejects a second active primary or assigned_to link.
// hasActive is the result of the container lookup for linkType.
func CheckUniqueness(linkType string, hasActive bool) *types.Violation {
	if !hasActive {
		return nil
	}
	switch linkType {
	case types.LinkPrimary:
		return types.NewViolation(types.CodeDuplicatePrimaryLink,
			"container already has a primary link")
	case types.LinkAssignedTo:
		return types.NewViolation(types.CodeDuplicateAssignedLink,
			"container already has an assigned_to link")
	}
	return nil
}
