// Package identity resolves login identifiers to accounts and issues
// session tokens. Tokens are stateless; there is no server-side
// revocation and logout is a client-side discard.
package identity

import "time"

// Role enumerates the account roles known to the resolver.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleDriver  Role = "driver"
	RoleParent  Role = "parent"
)

// Account is a persisted login account. Email is empty for phone-only
// guardian accounts.
type Account struct {
	ID                 int64
	Email              string
	Phone              string
	PasswordHash       string
	Role               Role
	DisplayName        string
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// GuardianRecord is a family guardian keyed by normalized phone. It is
// independent of any Account until the guardian first logs in.
type GuardianRecord struct {
	ID             int64
	Phone          string
	FamilyNumber   string
	PrimaryName    string
	LinkedChildIDs []int64
}

// ResolvedAccount is the successful outcome of identifier resolution.
type ResolvedAccount struct {
	ID    int64  `json:"id"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
}

func resolved(a *Account) *ResolvedAccount {
	return &ResolvedAccount{ID: a.ID, Email: a.Email, Role: a.Role, Name: a.DisplayName}
}
