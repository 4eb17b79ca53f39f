/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package impostor

import "errors"

// Class groups error kinds by how a caller should react to them.
type Class string

const (
	ClassValidation    Class = "validation"
	ClassNotFound      Class = "not_found"
	ClassAuthorization Class = "authorization"
	ClassPrecondition  Class = "precondition"
	ClassCapacity      Class = "capacity"
)

// Error is a rejected command. None of these leave partial state behind.
type Error struct {
	Kind    string
	Class   Class
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrEmptyName           = &Error{Kind: "EmptyName", Class: ClassValidation, Message: "a name is required"}
	ErrInvalidCode         = &Error{Kind: "InvalidCode", Class: ClassValidation, Message: "malformed room code"}
	ErrRoomNotFound        = &Error{Kind: "RoomNotFound", Class: ClassNotFound, Message: "room not found"}
	ErrForbidden           = &Error{Kind: "Forbidden", Class: ClassAuthorization, Message: "only the host can do that"}
	ErrNotAMember          = &Error{Kind: "NotAMember", Class: ClassAuthorization, Message: "not a member of this room, rejoin from the lobby"}
	ErrRoundInProgress     = &Error{Kind: "RoundInProgress", Class: ClassPrecondition, Message: "the game has already started"}
	ErrInsufficientPlayers = &Error{Kind: "InsufficientPlayers", Class: ClassPrecondition, Message: "at least 3 players are needed"}
	ErrCapacityExhausted   = &Error{Kind: "CapacityExhausted", Class: ClassCapacity, Message: "no free room codes available"}
)

// KindOf returns the wire kind for err, or "Internal" if err is not one of ours.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return "Internal"
}
