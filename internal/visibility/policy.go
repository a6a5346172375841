// Package visibility decides which interview requests an actor may observe.
// The policy is evaluated independently of, and always before, the lifecycle
// state machine: a record that fails visibility is unreachable for
// transitions even when the caller knows its identifier.
package visibility

import (
	"strings"

	"github.com/jonathan/interview-coordinator/internal/lifecycle"
	"github.com/jonathan/interview-coordinator/internal/types"
)

// fieldCodes is the explicit, total mapping from interviewer assigned-field
// codes to request field labels. Interviewer accounts historically carry
// short codes while requests carry full labels; both spellings resolve here
// and nowhere else.
var fieldCodes = map[string]types.Field{
	"FE":       types.FieldFrontend,
	"FRONTEND": types.FieldFrontend,
	"BE":       types.FieldBackend,
	"BACKEND":  types.FieldBackend,
	"MOB":      types.FieldMobile,
	"MOBILE":   types.FieldMobile,
	"UX":       types.FieldUX,
}

// ResolveFieldCode maps an interviewer's assigned-field code to the request
// field label it covers. Returns false for unknown codes; an interviewer
// with an unresolvable code sees nothing rather than everything.
func ResolveFieldCode(code string) (types.Field, bool) {
	field, ok := fieldCodes[strings.ToUpper(strings.TrimSpace(code))]
	return field, ok
}

// Visible reports whether the actor may observe the record.
//
// Staff (admin/maintainer) see everything. An interviewer sees only
// approved records in its assigned field; pending, reviewing, canceled and
// completed records stay hidden regardless of field match. A candidate sees
// only records it authored, in any status.
func Visible(actor types.Actor, record *lifecycle.Record) bool {
	switch {
	case actor.Role.IsStaff():
		return true
	case actor.Role == types.RoleInterviewer:
		field, ok := ResolveFieldCode(actor.AssignedField)
		if !ok {
			return false
		}
		return record.Status == lifecycle.StatusApproved && strings.EqualFold(record.Field, string(field))
	case actor.Role == types.RoleUser:
		return record.CandidateID == actor.ID
	default:
		return false
	}
}

// Filter returns the subset of records the actor may observe, preserving
// order.
func Filter(actor types.Actor, records []*lifecycle.Record) []*lifecycle.Record {
	out := make([]*lifecycle.Record, 0, len(records))
	for _, record := range records {
		if Visible(actor, record) {
			out = append(out, record)
		}
	}
	return out
}
