package models

import (
	"reflect"
	"testing"
)

func TestPatchFields_OnlySetMembers(t *testing.T) {
	city := "Hualien"
	patch := StationPatch{
		City:    Some(&city),
		Level:   Some(0),
		Comment: Some[*string](nil),
	}

	got := patch.Fields()

	if len(got) != 3 {
		t.Fatalf("expected 3 fields, got %d: %v", len(got), got)
	}
	if got["level"] != 0 {
		t.Errorf("explicit zero level should be kept, got %v", got["level"])
	}
	if p, ok := got["city"].(*string); !ok || *p != city {
		t.Errorf("unexpected city %v", got["city"])
	}
	if v, ok := got["comment"]; !ok || v.(*string) != nil {
		t.Errorf("explicit null comment should be kept as nil, got %v", v)
	}
	for _, unset := range []string{"geometry", "county", "op_hour"} {
		if _, ok := got[unset]; ok {
			t.Errorf("unset member %s was included", unset)
		}
	}
}

func TestPatchFields_EmptyAndInvalid(t *testing.T) {
	tests := []struct {
		name  string
		patch any
	}{
		{name: "zero patch", patch: StationPatch{}},
		{name: "nil pointer", patch: (*StationPatch)(nil)},
		{name: "not a struct", patch: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PatchFields(tt.patch)
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty map, got %v", got)
			}
		})
	}
}

func TestPatchFields_Pointer(t *testing.T) {
	patch := &StationPropertyPatch{Status: Some("verified"), Weightings: Some(0.5)}

	got := PatchFields(patch)
	want := map[string]any{"status": "verified", "weightings": 0.5}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRatingValid(t *testing.T) {
	for _, r := range []Rating{RatingUp, RatingNeutral, RatingDown} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Rating{"", "UP", "sideways"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}

func TestGeometryEntities(t *testing.T) {
	tests := []struct {
		entity GeometryEntity
		want   string
	}{
		{&ClosureArea{}, IdentityClosureArea},
		{&Station{}, IdentityStation},
		{&HRRequirement{}, IdentityHRRequirement},
		{&SupplyRequirement{}, IdentitySupplyRequirement},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		got := tt.entity.PolymorphicIdentity()
		if got != tt.want {
			t.Errorf("%T: identity %q, want %q", tt.entity, got, tt.want)
		}
		if seen[got] {
			t.Errorf("identity %q is not unique", got)
		}
		seen[got] = true
	}

	if (BaseGeometry{}).PolymorphicIdentity() != IdentityBase {
		t.Error("root identity mismatch")
	}
	if (RequestBase{}).PolymorphicIdentity() != IdentityRequest {
		t.Error("request identity mismatch")
	}
}

func TestTimestampsDeleted(t *testing.T) {
	var s Station
	if s.Deleted() {
		t.Error("zero station should not be deleted")
	}
}
