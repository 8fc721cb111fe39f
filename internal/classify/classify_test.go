package classify

import "testing"

func TestRadFamilyLookup(t *testing.T) {
	cases := map[string]string{
		"BLANKPHD":     "DATA",
		"ARR":          "BULLETIN",
		"ALERT_SYSTEM": "ALERT",
	}
	for product, want := range cases {
		got, ok := RadFamily(product)
		if !ok || got != want {
			t.Errorf("RadFamily(%q) = %q, %v; want %q, true", product, got, ok, want)
		}
	}
}

func TestRadFamilyUnknownProduct(t *testing.T) {
	if _, ok := RadFamily("NOT_A_PRODUCT"); ok {
		t.Error("expected RadFamily to report not-ok for an unregistered product")
	}
}

func TestBulletinCodesAreUppercase(t *testing.T) {
	for code := range BulletinCodes {
		if code == "" {
			t.Fatal("empty bulletin code")
		}
		for _, r := range code {
			if r >= 'a' && r <= 'z' {
				t.Errorf("bulletin code %q must be registered uppercase", code)
			}
		}
	}
	for _, code := range []string{"REB", "SEL1", "IDC_REB", "IDC_SEB", "IDC_SSEB", "IDC_NEB", "IDC_NSEB"} {
		if !BulletinCodes[code] {
			t.Errorf("expected %s to be a recognized bulletin code", code)
		}
	}
}

func TestFloatBoundsCoverSpecFields(t *testing.T) {
	for _, field := range []string{"DEPTH", "MAG", "MBMINUSMS", "DEPTHMINUSERROR"} {
		if _, ok := FloatBounds[field]; !ok {
			t.Errorf("expected FloatBounds to contain %s", field)
		}
	}
	if _, ok := FloatBounds["EVENTSTADIST"]; ok {
		t.Error("EVENTSTADIST is presence-only and must not carry a float bound")
	}
	if FloatBounds["DEPTH"].Min != 0 || FloatBounds["DEPTH"].Max != 4000 {
		t.Errorf("DEPTH bounds = %+v", FloatBounds["DEPTH"])
	}
	if FloatBounds["MAG"].Min != 0 || FloatBounds["MAG"].Max != 12 {
		t.Errorf("MAG bounds = %+v", FloatBounds["MAG"])
	}
}
