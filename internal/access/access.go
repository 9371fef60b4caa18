// Package access holds the authorization predicates for document records.
// Every lifecycle operation consults these before touching any backend.
package access

import "planvault/internal/model"

// CanRead reports whether the caller may read the record: the owner always
// can, and a department reviewer can read any record in their department.
func CanRead(doc *model.Document, caller model.Identity) bool {
	if doc.OwnerID == caller.ID {
		return true
	}
	return caller.Role == model.RoleReviewer && caller.Department != "" && caller.Department == doc.Department
}

// CanModify reports whether the caller may edit, rename or delete the
// record. Only the owner may.
func CanModify(doc *model.Document, caller model.Identity) bool {
	return doc.OwnerID == caller.ID
}
