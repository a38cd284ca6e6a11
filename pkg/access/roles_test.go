package access

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{"admin", "admin", RoleAdmin, false},
		{"operator", "operator", RoleOperator, false},
		{"developer", "developer", RoleDeveloper, false},
		{"unknown role", "root", "", true},
		{"empty", "", "", true},
		{"case sensitive", "Admin", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		role        Role
		canExecute  bool
		canGenerate bool
		canManage   bool
	}{
		{RoleAdmin, true, true, true},
		{RoleOperator, true, true, false},
		{RoleDeveloper, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := CanExecute(tt.role); got != tt.canExecute {
				t.Errorf("CanExecute(%s) = %v, want %v", tt.role, got, tt.canExecute)
			}
			if got := CanGenerate(tt.role); got != tt.canGenerate {
				t.Errorf("CanGenerate(%s) = %v, want %v", tt.role, got, tt.canGenerate)
			}
			if got := CanManage(tt.role); got != tt.canManage {
				t.Errorf("CanManage(%s) = %v, want %v", tt.role, got, tt.canManage)
			}
		})
	}
}
