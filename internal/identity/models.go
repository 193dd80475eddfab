package identity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role supplies the permission set for every user assigned to it.
// Access levels are derived from the role name at check time, never stored.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
}

// User is the role-joined account record as loaded from the store.
//
// PasswordHash must never cross the service boundary; every outward-facing
// path goes through Safe().
type User struct {
	ID                 int64
	Username           string
	Email              string
	FullName           string
	Avatar             string
	JobTitle           string
	JobCode            string
	SupervisorID       *int64
	LocationID         *int64
	ParentDepartmentID *int64
	ChildDepartment1ID *int64
	ChildDepartment2ID *int64
	RoleID             int64
	IsActive           bool
	PasswordHash       string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Role is nil when the lookup did not join role data.
	Role *Role

	// Permissions is the normalized permission set. When the store hands the
	// set over in serialized form it lands in RawPermissions instead and is
	// parsed on demand; see PermissionList.
	Permissions    []string
	RawPermissions string
}

// RoleName returns the joined role name, or "" when no role is attached.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// PermissionList normalizes the permission set. A serialized set that fails
// to parse is reported as an error value, not a panic; callers surface it as
// a failed check.
func (u *User) PermissionList() ([]string, error) {
	if u == nil {
		return nil, nil
	}
	if u.Permissions != nil {
		return u.Permissions, nil
	}
	if u.RawPermissions == "" {
		return nil, nil
	}
	var perms []string
	if err := json.Unmarshal([]byte(u.RawPermissions), &perms); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}
	return perms, nil
}

// DepartmentIDs collects the user's department references: the parent
// department plus up to two child department levels.
func (u *User) DepartmentIDs() []int64 {
	if u == nil {
		return nil
	}
	var ids []int64
	for _, ref := range []*int64{u.ParentDepartmentID, u.ChildDepartment1ID, u.ChildDepartment2ID} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	return ids
}

// SafeUser is the only user shape allowed past the trust boundary.
// It carries no credential material.
type SafeUser struct {
	ID                 int64  `json:"userId"`
	Username           string `json:"userName"`
	Email              string `json:"email"`
	FullName           string `json:"fullName,omitempty"`
	Avatar             string `json:"avatar,omitempty"`
	JobTitle           string `json:"jobTitle,omitempty"`
	JobCode            string `json:"jobCode,omitempty"`
	SupervisorID       *int64 `json:"supervisorId,omitempty"`
	LocationID         *int64 `json:"locationId,omitempty"`
	ParentDepartmentID *int64 `json:"parentDepartmentId,omitempty"`
	ChildDepartment1ID *int64 `json:"childDepartment1Id,omitempty"`
	ChildDepartment2ID *int64 `json:"childDepartment2Id,omitempty"`
	RoleID             int64  `json:"roleId"`
	IsActive           bool   `json:"isActive"`
	Role               *Role  `json:"role"`
}

// Safe builds the outward projection, stripping the password hash and any
// unparsed permission payload.
func (u *User) Safe() SafeUser {
	if u == nil {
		return SafeUser{}
	}
	return SafeUser{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		FullName:           u.FullName,
		Avatar:             u.Avatar,
		JobTitle:           u.JobTitle,
		JobCode:            u.JobCode,
		SupervisorID:       u.SupervisorID,
		LocationID:         u.LocationID,
		ParentDepartmentID: u.ParentDepartmentID,
		ChildDepartment1ID: u.ChildDepartment1ID,
		ChildDepartment2ID: u.ChildDepartment2ID,
		RoleID:             u.RoleID,
		IsActive:           u.IsActive,
		Role:               u.Role,
	}
}
