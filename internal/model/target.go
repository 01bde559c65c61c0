package model

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidTarget = errors.New("exactly one of recipient_handle, organization_id or region_id must be provided")

// TargetKind doubles as the public recipient type label.
type TargetKind string

const (
	TargetDirect       TargetKind = "user"
	TargetOrganization TargetKind = "organization"
	TargetRegion       TargetKind = "region"
)

// Target is the resolved delivery target of a send request. Only the field
// matching Kind is set.
type Target struct {
	Kind           TargetKind
	Handle         string
	OrganizationID uuid.UUID
	RegionID       uuid.UUID
}

// ResolveTarget enforces the exactly-one-of rule over the three optional
// recipient fields and collapses them into a Target.
func ResolveTarget(handle *string, organizationID, regionID *uuid.UUID) (Target, error) {
	set := 0
	if handle != nil && *handle != "" {
		set++
	}
	if organizationID != nil {
		set++
	}
	if regionID != nil {
		set++
	}
	if set != 1 {
		return Target{}, ErrInvalidTarget
	}

	switch {
	case handle != nil && *handle != "":
		return Target{Kind: TargetDirect, Handle: *handle}, nil
	case organizationID != nil:
		return Target{Kind: TargetOrganization, OrganizationID: *organizationID}, nil
	default:
		return Target{Kind: TargetRegion, RegionID: *regionID}, nil
	}
}

// Recipient returns the value exposed in the public "to" shape.
func (t Target) Recipient() string {
	switch t.Kind {
	case TargetDirect:
		return t.Handle
	case TargetOrganization:
		return t.OrganizationID.String()
	default:
		return t.RegionID.String()
	}
}
