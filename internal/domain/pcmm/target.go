package pcmm

import (
	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

type TargetKind string

const (
	TargetElement    TargetKind = "element"
	TargetSubelement TargetKind = "subelement"
)

// Target is the node an assessment, evidence row or planning value is attached
// to. The only implementations are ElementTarget and SubelementTarget.
type Target interface {
	Kind() TargetKind
	NodeID() uuid.UUID
	// RootElementID is the element owning the node. It may be uuid.Nil for a
	// subelement target whose parent was not loaded.
	RootElementID() uuid.UUID
	isTarget()
}

type ElementTarget struct {
	ElementID uuid.UUID
}

func (t ElementTarget) Kind() TargetKind         { return TargetElement }
func (t ElementTarget) NodeID() uuid.UUID        { return t.ElementID }
func (t ElementTarget) RootElementID() uuid.UUID { return t.ElementID }
func (ElementTarget) isTarget()                  {}

type SubelementTarget struct {
	SubelementID uuid.UUID
	ElementID    uuid.UUID
}

func (t SubelementTarget) Kind() TargetKind         { return TargetSubelement }
func (t SubelementTarget) NodeID() uuid.UUID        { return t.SubelementID }
func (t SubelementTarget) RootElementID() uuid.UUID { return t.ElementID }
func (SubelementTarget) isTarget()                  {}

func ForElement(e *Element) Target {
	return ElementTarget{ElementID: e.ID}
}

func ForSubelement(s *Subelement) Target {
	return SubelementTarget{SubelementID: s.ID, ElementID: s.ElementID}
}

// TargetOf rebuilds a target from the two nullable foreign keys stored on a row.
func TargetOf(elementID, subelementID *uuid.UUID) (Target, error) {
	hasElt := elementID != nil && *elementID != uuid.Nil
	hasSub := subelementID != nil && *subelementID != uuid.Nil
	switch {
	case hasElt && hasSub:
		return nil, pkgerrors.Validation("target", "both element and subelement set")
	case hasElt:
		return ElementTarget{ElementID: *elementID}, nil
	case hasSub:
		return SubelementTarget{SubelementID: *subelementID}, nil
	default:
		return nil, pkgerrors.Validation("target", "neither element nor subelement set")
	}
}

// targetColumns splits a target back into the two storage columns.
func targetColumns(t Target) (elementID, subelementID *uuid.UUID) {
	switch v := t.(type) {
	case ElementTarget:
		id := v.ElementID
		return &id, nil
	case SubelementTarget:
		id := v.SubelementID
		return nil, &id
	default:
		return nil, nil
	}
}
