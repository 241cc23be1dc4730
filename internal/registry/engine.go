// Package registry implements the registration decision logic: given a
// tenant's current phone→student-ID mapping and a candidate pair, it
// decides which associations must be removed and inserted and what the
// sender should be told. The engine is pure; applying the resulting plan
// against the directory store is the caller's job.
package registry

import (
	"fmt"
	"sort"
)

// Outcome is the engine's decision for one register call.
//
// Removals lists the student IDs whose associations must be deleted
// before Insert. Removals and the insert belong to one logical mutation:
// the store must apply them together or not at all, otherwise a phone
// number or student ID can end up double-booked.
type Outcome struct {
	Changed  bool
	Removals []string
	Insert   bool
	Message  string
}

// Register decides what mutation (if any) a REGISTER or UPDATE command
// needs. registered is a fresh snapshot of the tenant's mapping; force
// is true only for the UPDATE command.
//
// The returned map is a new, independently owned copy with the planned
// mutations applied. It never aliases the input.
func Register(registered map[string]string, phone, studentID string, force bool) (map[string]string, Outcome) {
	updated := cloneMap(registered)

	bound := phonesFor(registered, studentID)

	// New student ID for this tenant.
	if len(bound) == 0 {
		out := Outcome{Changed: true, Insert: true}
		// The phone may already be bound to a different ID; drop that
		// association so the number is not double-booked.
		if prior, ok := registered[phone]; ok && prior != studentID {
			out.Removals = append(out.Removals, prior)
		}
		updated[phone] = studentID
		out.Message = fmt.Sprintf("OK - student ID %s has been registered to this phone number.", studentID)
		return updated, out
	}

	// Already registered to this exact number: nothing to do.
	for _, p := range bound {
		if p == phone {
			return updated, Outcome{
				Message: fmt.Sprintf("This student ID (%s) is already registered to this phone number.", studentID),
			}
		}
	}

	// Registered elsewhere and not forced: reveal only a masked tail and
	// point the sender at the UPDATE command.
	if !force {
		return updated, Outcome{
			Message: fmt.Sprintf(
				"This student ID (%s) is currently registered to another phone number (%s). If you want to move the ID to this new number, text UPDATE %s",
				studentID, MaskTail(bound[0]), studentID,
			),
		}
	}

	// UPDATE: move the ID to the new number. Remove the old id→phone
	// association, and the phone's own stale binding if it has one.
	out := Outcome{Changed: true, Insert: true, Removals: []string{studentID}}
	for _, p := range bound {
		delete(updated, p)
	}
	if prior, ok := registered[phone]; ok && prior != studentID {
		out.Removals = append(out.Removals, prior)
	}
	updated[phone] = studentID
	out.Message = fmt.Sprintf("OK - student ID %s has been updated and is now registered to this phone number.", studentID)
	return updated, out
}

// Verify returns the student ID bound to the phone number, if any.
func Verify(registered map[string]string, phone string) (string, bool) {
	studentID, ok := registered[phone]
	return studentID, ok
}

// MaskTail renders a phone number as "XXX-X" plus its last three digits,
// the only part a conflict message is allowed to reveal.
func MaskTail(phone string) string {
	tail := phone
	if len(phone) > 3 {
		tail = phone[len(phone)-3:]
	}
	return "XXX-X" + tail
}

// phonesFor returns the phone numbers bound to a student ID, sorted for
// deterministic behavior if the mapping is ever inconsistent.
func phonesFor(registered map[string]string, studentID string) []string {
	var phones []string
	for p, id := range registered {
		if id == studentID {
			phones = append(phones, p)
		}
	}
	sort.Strings(phones)
	return phones
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
