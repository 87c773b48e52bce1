package model

import "time"

// Staff roles.  STAFF can scan tickets; MANAGER can additionally read
// event-wide listings and exports.
const (
    RoleStaff   = "STAFF"
    RoleManager = "MANAGER"
)

// User represents a staff account as stored in the `users` table.
// Accounts are provisioned externally; this service only authenticates
// them for the check-in surface.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – staff role (STAFF or MANAGER).
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
