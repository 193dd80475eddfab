package identity

import (
	"encoding/json"
	"strings"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func TestSafe_StripsPasswordHash(t *testing.T) {
	u := &User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@org.com",
		PasswordHash: "$2a$10$secret",
		Role:         &Role{ID: 2, Name: "Staff", Permissions: []string{"users.read"}},
	}

	b, err := json.Marshal(u.Safe())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "secret") || strings.Contains(out, "hash") || strings.Contains(out, "Hash") {
		t.Fatalf("safe projection leaked credential material: %s", out)
	}
	if !strings.Contains(out, `"userId":1`) || !strings.Contains(out, `"userName":"alice"`) {
		t.Fatalf("unexpected projection: %s", out)
	}
}

func TestPermissionList_Normalization(t *testing.T) {
	structured := &User{Permissions: []string{"a", "b"}}
	perms, err := structured.PermissionList()
	if err != nil || len(perms) != 2 {
		t.Fatalf("structured: got %v, %v", perms, err)
	}

	serialized := &User{RawPermissions: `["users.read","users.write"]`}
	perms, err = serialized.PermissionList()
	if err != nil {
		t.Fatalf("serialized: %v", err)
	}
	if len(perms) != 2 || perms[0] != "users.read" {
		t.Fatalf("serialized: got %v", perms)
	}

	malformed := &User{RawPermissions: `{not json`}
	if _, err := malformed.PermissionList(); err == nil {
		t.Fatalf("expected parse error for malformed permission payload")
	}

	empty := &User{}
	perms, err = empty.PermissionList()
	if err != nil || perms != nil {
		t.Fatalf("empty: got %v, %v", perms, err)
	}
}

func TestDepartmentIDs(t *testing.T) {
	u := &User{ParentDepartmentID: int64p(7), ChildDepartment2ID: int64p(12)}
	ids := u.DepartmentIDs()
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 12 {
		t.Fatalf("unexpected department ids: %v", ids)
	}

	var none *User
	if none.DepartmentIDs() != nil {
		t.Fatalf("nil user should have no departments")
	}
}

func TestRoleName(t *testing.T) {
	if (&User{}).RoleName() != "" {
		t.Fatalf("user without role should have empty role name")
	}
	u := &User{Role: &Role{Name: "Admin"}}
	if u.RoleName() != "Admin" {
		t.Fatalf("unexpected role name %q", u.RoleName())
	}
}
