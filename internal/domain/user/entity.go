// internal/domain/user/entity.go
package user

import "time"

// User is the identity record this service reads for attribution. Accounts
// are created and authenticated by the identity service; leads only hold
// weak references to them.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Ref is the projection embedded in lead responses wherever a lead field
// references a user (assignee, creator, note author).
type Ref struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Ref() Ref {
	return Ref{ID: u.ID, Name: u.Name, Email: u.Email}
}
