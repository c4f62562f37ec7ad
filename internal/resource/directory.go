// ABOUTME: Contact directory grouping used by the public contact listing
// ABOUTME: Groups entries by role, keeping roles in first-seen order

package resource

import "strings"

// ContactGroup is the set of contacts sharing a role.
type ContactGroup struct {
	Role     string
	Contacts []ContactEntry
}

// GroupContactsByRole groups contacts by role. Roles keep the order in which
// they first appear; entries keep their relative order within a role.
// Blank roles are grouped under "other".
func GroupContactsByRole(contacts []ContactEntry) []ContactGroup {
	index := make(map[string]int)
	var groups []ContactGroup

	for _, c := range contacts {
		role := strings.TrimSpace(c.Role)
		if role == "" {
			role = "other"
		}
		i, ok := index[role]
		if !ok {
			i = len(groups)
			index[role] = i
			groups = append(groups, ContactGroup{Role: role})
		}
		groups[i].Contacts = append(groups[i].Contacts, c)
	}
	return groups
}
