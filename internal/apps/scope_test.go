package apps

import "testing"

func TestParseScopeUnit(t *testing.T) {
	cases := []struct {
		name string
		unit string
		want string
		ok   bool
	}{
		{"plain", "app-com.acme.Writer-4242.scope", "com.acme.Writer", true},
		{"gnome launcher", "app-gnome-com.acme.Writer-1234.scope", "com.acme.Writer", true},
		{"flatpak launcher", "app-flatpak-com.acme.Studio-99.scope", "com.acme.Studio", true},
		{"escaped dash", `app-gnome-com.acme.crash\x2dreporter-7.scope`, "com.acme.crash-reporter", true},
		{"no random suffix", "app-com.acme.Writer.scope", "com.acme.Writer", true},
		{"service unit", "dbus.service", "", false},
		{"session scope", "session-2.scope", "", false},
		{"slice", "app.slice", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseScopeUnit(tc.unit)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParseScopeUnit(%q) = (%q, %v), want (%q, %v)", tc.unit, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestIdentifierFromCgroup(t *testing.T) {
	data := []byte(`0::/user.slice/user-1000.slice/user@1000.service/app.slice/app-gnome-com.acme.Writer-4242.scope
`)
	if got := identifierFromCgroup(data); got != "com.acme.Writer" {
		t.Fatalf("identifierFromCgroup = %q, want com.acme.Writer", got)
	}
}

func TestIdentifierFromCgroupIgnoresSystemUnits(t *testing.T) {
	data := []byte(`0::/system.slice/cron.service
`)
	if got := identifierFromCgroup(data); got != "" {
		t.Fatalf("expected empty identifier for system unit, got %q", got)
	}
}

func TestIdentifierFromCgroupSkipsLegacyHierarchies(t *testing.T) {
	data := []byte(`12:pids:/user.slice/app-com.acme.Writer-1.scope
0::/user.slice/user-1000.slice/session-3.scope
`)
	if got := identifierFromCgroup(data); got != "" {
		t.Fatalf("expected empty identifier when v2 entry is not an app scope, got %q", got)
	}
}

func TestUnescapeUnitName(t *testing.T) {
	if got := unescapeUnitName(`com.acme.crash\x2dreporter`); got != "com.acme.crash-reporter" {
		t.Fatalf("unescapeUnitName = %q", got)
	}
	if got := unescapeUnitName("com.acme.Writer"); got != "com.acme.Writer" {
		t.Fatalf("unescapeUnitName should pass through unescaped names, got %q", got)
	}
}
